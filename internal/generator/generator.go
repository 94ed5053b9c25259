// Package generator turns a site route or a search query into an HTML fragment
// by calling an external text-generation service. Every failure is returned as
// an error value; no placeholder content is ever produced here.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/sirupsen/logrus"

	"github.com/dynsite/dynsite/internal/pathkey"
)

var (
	// ErrGenerationFailed 表示服务调用失败或输出无法使用。
	ErrGenerationFailed = errors.New("generation failed")
	// ErrMalformedResponse 表示建页流程的结构化输出无法解析。
	ErrMalformedResponse = errors.New("malformed generation response")
)

var (
	urlPathExpr = jp.MustParseString("$.url_path")
	contentExpr = jp.MustParseString("$.content")
)

// Discovery 是搜索建页流程的产物。
type Discovery struct {
	Path    string
	Content string
}

// Generator 组合 Completer 与指令模板。
type Generator struct {
	completer Completer
	prompts   Prompts
	logger    *logrus.Logger
}

// New 构建 Generator。
func New(completer Completer, prompts Prompts, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{
		completer: completer,
		prompts:   prompts,
		logger:    logger,
	}
}

// GenerateForPath 为路径生成主体片段。失败时返回空串和包装了 ErrGenerationFailed 的错误。
func (g *Generator) GenerateForPath(ctx context.Context, path string) (string, error) {
	req := g.prompts.ForPath(path)
	fields := logrus.Fields{"action": "generate_page", "path": path, "topic": Topic(path)}

	raw, err := g.complete(ctx, req)
	if err != nil {
		g.logger.WithError(err).WithFields(fields).Warn("generation_call_failed")
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	content, outcome := Extract(raw)
	fields["outcome"] = string(outcome)
	switch outcome {
	case OutcomeBody:
		g.logger.WithFields(fields).Warn("generation_body_without_main")
	case OutcomeDocument:
		g.logger.WithFields(fields).Warn("generation_full_document_discarded")
	case OutcomeEmpty:
		g.logger.WithFields(fields).Warn("generation_empty")
	default:
		g.logger.WithFields(fields).Debug("generation_ok")
	}

	if content == "" {
		return "", fmt.Errorf("%w: unusable output (%s)", ErrGenerationFailed, outcome)
	}
	return content, nil
}

// GenerateFromQuery 根据搜索词生成新页面的路径与内容。
// 任何失败都会返回 ErrMalformedResponse；服务调用失败时同时满足 ErrGenerationFailed。
func (g *Generator) GenerateFromQuery(ctx context.Context, query string) (Discovery, error) {
	req := g.prompts.ForQuery(query)
	fields := logrus.Fields{"action": "generate_discovery", "query": query}

	raw, err := g.complete(ctx, req)
	if err != nil {
		g.logger.WithError(err).WithFields(fields).Warn("generation_call_failed")
		return Discovery{}, fmt.Errorf("%w: %w: %v", ErrMalformedResponse, ErrGenerationFailed, err)
	}

	discovery, err := ParseDiscovery(raw)
	if err != nil {
		g.logger.WithError(err).WithFields(fields).Warn("generation_malformed")
		return Discovery{}, err
	}

	content, outcome := Extract(discovery.Content)
	if content == "" {
		fields["outcome"] = string(outcome)
		g.logger.WithFields(fields).Warn("generation_malformed")
		return Discovery{}, fmt.Errorf("%w: content unusable (%s)", ErrMalformedResponse, outcome)
	}
	discovery.Content = content

	fields["path"] = discovery.Path
	g.logger.WithFields(fields).Debug("generation_ok")
	return discovery, nil
}

// ParseDiscovery 解析 {"url_path": string, "content": string} 对象，并强制路径以 / 开头。
func ParseDiscovery(raw string) (Discovery, error) {
	parsed, err := oj.ParseString(stripCodeFence(raw))
	if err != nil {
		return Discovery{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return Discovery{}, fmt.Errorf("%w: expected a JSON object, got %T", ErrMalformedResponse, parsed)
	}

	urlPath, err := stringField(obj, urlPathExpr, "url_path")
	if err != nil {
		return Discovery{}, err
	}
	content, err := stringField(obj, contentExpr, "content")
	if err != nil {
		return Discovery{}, err
	}

	urlPath = strings.TrimSpace(urlPath)
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	normalized := pathkey.Normalize(urlPath)
	// 新页面不能覆盖首页，也不能清洗成空键。
	if normalized == pathkey.Root || pathkey.CacheKey(normalized) == "" {
		return Discovery{}, fmt.Errorf("%w: unusable url_path %q", ErrMalformedResponse, urlPath)
	}
	return Discovery{Path: normalized, Content: content}, nil
}

func stringField(obj map[string]any, expr jp.Expr, name string) (string, error) {
	values := expr.Get(obj)
	if len(values) == 0 {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedResponse, name)
	}
	value, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, not a string", ErrMalformedResponse, name, values[0])
	}
	return value, nil
}

// complete 在未注入 completer 时直接返回错误。
func (g *Generator) complete(ctx context.Context, req Request) (string, error) {
	if g.completer == nil {
		return "", errors.New("no completer configured")
	}
	return g.completer.Complete(ctx, req)
}
