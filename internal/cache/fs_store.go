package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/dynsite/dynsite/internal/pathkey"
)

const tempPattern = ".page-*.tmp"

func init() {
	MustRegisterBackend("fs", func(opts Options) (Store, error) {
		return NewStore(opts.Path)
	})
}

// NewStore 以 basePath 为根目录构建平铺的磁盘缓存，整站复用一份实例。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &fileStore{basePath: abs}, nil
}

// fileStore 不持有任何锁：写入依赖 temp + rename 的原子替换，同一键并发写入以最后一次 rename 为准。
type fileStore struct {
	basePath string
}

func (s *fileStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	filePath, err := s.entryPath(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *fileStore) Get(ctx context.Context, path string) (string, error) {
	key := pathkey.CacheKey(path)
	if err := ctx.Err(); err != nil {
		return "", &ReadError{Key: key, Err: err}
	}

	filePath, err := s.entryPath(path)
	if err != nil {
		return "", &ReadError{Key: key, Err: err}
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", &ReadError{Key: key, Err: err}
	}
	if info.IsDir() {
		return "", ErrNotFound
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", &ReadError{Key: key, Err: err}
	}
	return string(body), nil
}

// entryMode 是缓存条目的文件权限。
const entryMode os.FileMode = 0o644

func (s *fileStore) Put(ctx context.Context, path string, content string) error {
	key := pathkey.CacheKey(path)
	if err := ctx.Err(); err != nil {
		return &WriteError{Key: key, Err: err}
	}

	filePath, err := s.entryPath(path)
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}

	tempFile, err := os.CreateTemp(s.basePath, tempPattern)
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	tempName := tempFile.Name()

	_, err = io.WriteString(tempFile, content)
	if err == nil {
		// CreateTemp 以 0600 创建，落盘条目统一为 0644。
		err = tempFile.Chmod(entryMode)
	}
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return &WriteError{Key: key, Err: err}
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

func (s *fileStore) Keys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dir, err := os.Open(s.basePath)
		if err != nil {
			yield("", err)
			return
		}
		defer dir.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			entries, err := dir.ReadDir(64)
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				key, ok := pathkey.KeyFromFileName(entry.Name())
				if !ok {
					continue
				}
				if !yield(key, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}
		}
	}
}

func (s *fileStore) Close() error { return nil }

// entryPath 返回条目的绝对路径；键只含 [A-Za-z0-9_-]，不会逃出 basePath。
func (s *fileStore) entryPath(path string) (string, error) {
	key := pathkey.CacheKey(path)
	if key == "" {
		return "", ErrEmptyKey
	}
	return filepath.Join(s.basePath, pathkey.FileName(key)), nil
}
