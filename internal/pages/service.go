package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/dynsite/dynsite/internal/cache"
	"github.com/dynsite/dynsite/internal/generator"
	"github.com/dynsite/dynsite/internal/logging"
	"github.com/dynsite/dynsite/internal/pathkey"
)

// MaxQueryRunes 是搜索词保留的最大字符数，超出部分截断。
const MaxQueryRunes = 256

var (
	// ErrInvalidInput 表示搜索词为空或全为空白。
	ErrInvalidInput = errors.New("invalid input")
	// ErrGenerationFailure 表示搜索建页失败，原始原因通过 errors.Is 仍可识别。
	ErrGenerationFailure = errors.New("generation failure")
)

// State 描述一次页面请求的结局。
type State string

const (
	StateSkipped   State = "skipped"
	StateServed    State = "served"
	StateGenerated State = "generated"
	StateFailed    State = "failed"
)

// Generator 是 Service 依赖的生成能力，*generator.Generator 满足该接口。
type Generator interface {
	GenerateForPath(ctx context.Context, path string) (string, error)
	GenerateFromQuery(ctx context.Context, query string) (generator.Discovery, error)
}

// Options 控制跳过列表与读出时的占位符替换。
type Options struct {
	// SkipPaths 中以 / 结尾的条目按前缀匹配，其余按完整路径匹配。
	SkipPaths []string
	// Substitutions 在返回内容前逐一替换，缓存中保存原文。
	Substitutions map[string]string
}

// Page 是 GetPageContent 的结果。Content 为空表示跳过或生成失败。
type Page struct {
	Path    string
	Content string
	State   State
}

// Discovery 是搜索建页的结果。
type Discovery struct {
	Path    string
	Content string
	Menu    []MenuItem
}

// Service 串联缓存读取、按需生成以及菜单构建。
type Service struct {
	store    cache.Store
	gen      Generator
	skip     []string
	replacer *strings.Replacer
	logger   *logrus.Logger
	inflight singleflight.Group
}

// NewService 构建页面服务。logger 为空时丢弃日志。
func NewService(store cache.Store, gen Generator, opts Options, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	skip := make([]string, 0, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		if p = strings.TrimSpace(p); p != "" {
			skip = append(skip, p)
		}
	}
	var pairs []string
	for token, value := range opts.Substitutions {
		if token != "" {
			pairs = append(pairs, token, value)
		}
	}
	var replacer *strings.Replacer
	if len(pairs) > 0 {
		replacer = strings.NewReplacer(pairs...)
	}
	return &Service{
		store:    store,
		gen:      gen,
		skip:     skip,
		replacer: replacer,
		logger:   logger,
	}
}

// Store 暴露底层缓存，供诊断接口统计条目。
func (s *Service) Store() cache.Store {
	return s.store
}

// GetPageContent 返回路径对应的片段：命中缓存直接返回，未命中时生成并尽力写回。
func (s *Service) GetPageContent(ctx context.Context, rawPath string) Page {
	path := pathkey.Normalize(rawPath)
	key := pathkey.CacheKey(path)

	if s.Skipped(path) {
		s.logger.WithFields(logging.PageFields("page_content", path, key, string(StateSkipped))).Debug("page_skipped")
		return Page{Path: path, State: StateSkipped}
	}

	content, err := s.store.Get(ctx, path)
	switch {
	case err == nil:
		s.logger.WithFields(logging.PageFields("page_content", path, key, string(StateServed))).Debug("page_served")
		return Page{Path: path, Content: s.substitute(content), State: StateServed}
	case errors.Is(err, cache.ErrNotFound):
	default:
		s.logger.WithError(err).WithFields(logging.PageFields("page_content", path, key, "read_error")).Warn("cache_read_failed")
	}

	content = s.generate(ctx, path, key)
	if content == "" {
		s.logger.WithFields(logging.PageFields("page_content", path, key, string(StateFailed))).Warn("page_generation_failed")
		return Page{Path: path, State: StateFailed}
	}
	s.logger.WithFields(logging.PageFields("page_content", path, key, string(StateGenerated))).Info("page_generated")
	return Page{Path: path, Content: s.substitute(content), State: StateGenerated}
}

// generate 合并同一缓存键的并发生成，只有拿到非空内容时才写回缓存。
func (s *Service) generate(ctx context.Context, path, key string) string {
	flightKey := key
	if flightKey == "" {
		flightKey = "path:" + path
	}
	result, _, _ := s.inflight.Do(flightKey, func() (any, error) {
		// 结果由所有等待者共享，不能随首个调用方取消；耗时上限由生成客户端的超时控制。
		shared := context.WithoutCancel(ctx)
		content, err := s.gen.GenerateForPath(shared, path)
		if err != nil || content == "" {
			return "", nil
		}
		s.save(shared, path, key, content)
		return content, nil
	})
	content, _ := result.(string)
	return content
}

// DiscoverPage 根据搜索词生成新页面，写回缓存并返回以新页面为当前项的菜单。
func (s *Service) DiscoverPage(ctx context.Context, query string) (Discovery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Discovery{}, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(query) > MaxQueryRunes {
		query = string([]rune(query)[:MaxQueryRunes])
	}

	found, err := s.gen.GenerateFromQuery(ctx, query)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"action": "discover_page", "query": query}).Warn("discovery_failed")
		return Discovery{}, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}

	path := pathkey.Normalize(found.Path)
	key := pathkey.CacheKey(path)
	s.save(ctx, path, key, found.Content)
	s.logger.WithFields(logging.PageFields("discover_page", path, key, string(StateGenerated))).Info("page_discovered")

	return Discovery{
		Path:    path,
		Content: s.substitute(found.Content),
		Menu:    s.Menu(ctx, path),
	}, nil
}

// Menu 构建以 current 为当前项的导航菜单。
func (s *Service) Menu(ctx context.Context, current string) []MenuItem {
	return BuildMenu(ctx, s.store, current, s.logger)
}

// Skipped 判断路径是否命中跳过列表。
func (s *Service) Skipped(path string) bool {
	for _, entry := range s.skip {
		if strings.HasSuffix(entry, "/") {
			if strings.HasPrefix(path+"/", entry) {
				return true
			}
			continue
		}
		if path == entry {
			return true
		}
	}
	return false
}

func (s *Service) save(ctx context.Context, path, key, content string) {
	if err := s.store.Put(ctx, path, content); err != nil {
		s.logger.WithError(err).WithFields(logging.PageFields("cache_write", path, key, "write_error")).Warn("cache_write_failed")
	}
}

func (s *Service) substitute(content string) string {
	if s.replacer == nil {
		return content
	}
	return s.replacer.Replace(content)
}
