// Package pathkey maps site routes to cache keys and menu labels.
//
// Every function here is pure. The reverse mapping KeyToPath is lossy: once a
// path has been flattened into a key, an underscore that came from the original
// route and an underscore that replaced a slash look the same, so KeyToPath
// always reads underscores as slashes.
package pathkey

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Root 是站点首页路径。
	Root = "/"
	// RootKey 是首页对应的缓存键。
	RootKey = "index"
	// FileSuffix 是缓存文件名的固定后缀。
	FileSuffix = "_content.html"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// Normalize 把任意原始路径规整为 "/" 或 "/seg[/seg...]" 形式。
func Normalize(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return Root
	}
	return "/" + trimmed
}

// CacheKey 生成文件系统安全的缓存键；只保留 [A-Za-z0-9_-]。
// 非首页路径若清洗后为空，返回空字符串，由存储层拒绝。
func CacheKey(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return RootKey
	}
	key := strings.ReplaceAll(trimmed, "/", "_")
	return unsafeKeyChars.ReplaceAllString(key, "")
}

// DisplayName 返回菜单展示名：首页为 Home，其余按单词首字母大写。
func DisplayName(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "Home"
	}
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(trimmed)
	return titleLetterRuns(spaced)
}

// titleLetterRuns 对每段连续字母单独做首字母大写，数字、撇号等非字母字符都视为分隔，
// 因此 ev2go 得到 Ev2Go，o'neil 得到 O'Neil。
func titleLetterRuns(s string) string {
	// cases.Caser 带状态，不能跨 goroutine 共享。
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

// KeyToPath 将缓存键（或缓存文件名）还原为路径，下划线一律视为斜杠。
func KeyToPath(key string) string {
	base := strings.TrimSuffix(key, FileSuffix)
	if base == RootKey || base == "" {
		return Root
	}
	return "/" + strings.ReplaceAll(base, "_", "/")
}

// FileName 返回缓存键对应的文件名。
func FileName(key string) string {
	return key + FileSuffix
}

// KeyFromFileName 从缓存文件名中取回缓存键，非缓存文件返回 false。
func KeyFromFileName(name string) (string, bool) {
	if !strings.HasSuffix(name, FileSuffix) {
		return "", false
	}
	key := strings.TrimSuffix(name, FileSuffix)
	if key == "" {
		return "", false
	}
	return key, true
}
