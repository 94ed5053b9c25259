package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Options 是创建存储后端时的通用参数，不同后端按需取用。
type Options struct {
	// Path 是 fs 后端的缓存目录。
	Path string
	// DSN 是 SQL 后端的连接串。
	DSN string
}

// Factory 根据 Options 构建一个 Store。
type Factory func(Options) (Store, error)

var backends = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// RegisterBackend 将后端加入全局注册表，重复名称会返回错误。
func RegisterBackend(name string, factory Factory) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("backend name is required")
	}
	if factory == nil {
		return fmt.Errorf("backend %s: factory is nil", key)
	}

	backends.mu.Lock()
	defer backends.mu.Unlock()

	if _, exists := backends.factories[key]; exists {
		return fmt.Errorf("backend %s already registered", key)
	}
	backends.factories[key] = factory
	return nil
}

// MustRegisterBackend 在注册失败时 panic，适合后端 init() 中调用。
func MustRegisterBackend(name string, factory Factory) {
	if err := RegisterBackend(name, factory); err != nil {
		panic(err)
	}
}

// Open 按名称创建存储后端。
func Open(name string, opts Options) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	backends.mu.RLock()
	factory, ok := backends.factories[key]
	backends.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("storage backend %q is not registered", name)
	}
	return factory(opts)
}

// Backends 返回已注册的后端名称（按字母排序）。
func Backends() []string {
	backends.mu.RLock()
	defer backends.mu.RUnlock()

	names := make([]string, 0, len(backends.factories))
	for name := range backends.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
