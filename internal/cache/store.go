package cache

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// Store 负责管理页面片段的读写。磁盘布局遵循：
//
//	<StoragePath>/<CacheKey>_content.html
//
// 条目是否存在即代表“已缓存”，不存储任何元数据。
type Store interface {
	// Exists 报告 path 对应的条目是否存在。
	Exists(ctx context.Context, path string) (bool, error)

	// Get 返回 path 对应的片段。不存在返回 ErrNotFound，I/O 失败返回 *ReadError。
	Get(ctx context.Context, path string) (string, error)

	// Put 整体替换或创建条目，失败返回 *WriteError。实现必须保证不出现半写入的条目。
	Put(ctx context.Context, path string, content string) error

	// Keys 惰性枚举所有缓存键，每次调用都重新扫描，不保证顺序。
	Keys(ctx context.Context) iter.Seq2[string, error]

	// Close 释放底层资源。
	Close() error
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ErrEmptyKey 表示路径清洗后得到空缓存键，无法落盘。
var ErrEmptyKey = errors.New("empty cache key")

// ReadError 包装读取缓存时的 I/O 错误，调用方应按未命中处理。
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read cache %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError 包装写入缓存时的错误，调用方记录日志后忽略即可。
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write cache %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CountKeys 遍历 Keys 统计条目数量，供诊断接口使用。
func CountKeys(ctx context.Context, store Store) (int, error) {
	count := 0
	for _, err := range store.Keys(ctx) {
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
