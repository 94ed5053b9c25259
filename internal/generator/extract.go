package generator

import (
	"regexp"
	"strings"
)

// 基于正则的片段提取：输入来自生成服务而非任意网页，只取第一个匹配块。
var (
	mainBlock = regexp.MustCompile(`(?is)<main[^>]*>(.*?)</main>`)
	bodyBlock = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
)

// Outcome 描述 Extract 走过的分支，便于日志区分。
type Outcome string

const (
	OutcomeMain        Outcome = "main"
	OutcomeBody        Outcome = "body"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeDocument    Outcome = "discarded_document"
	OutcomeEmpty       Outcome = "empty"
)

// Extract 把生成结果整理为可嵌入的 HTML 片段。
//
// 依次尝试 <main> 内部、<body> 内部；两者都没有但看起来是完整文档时整体丢弃。
// 其余文本原样返回（仅去掉首尾空白与外层代码围栏）。
// 返回空串表示生成失败。
func Extract(raw string) (string, Outcome) {
	content := stripCodeFence(raw)

	switch {
	case mainBlock.MatchString(content):
		content = mainBlock.FindStringSubmatch(content)[1]
		return finish(content, OutcomeMain)
	case bodyBlock.MatchString(content):
		content = bodyBlock.FindStringSubmatch(content)[1]
		return finish(content, OutcomeBody)
	case looksLikeDocument(content):
		return "", OutcomeDocument
	default:
		return finish(content, OutcomePassthrough)
	}
}

func finish(content string, outcome Outcome) (string, Outcome) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", OutcomeEmpty
	}
	return content, outcome
}

func looksLikeDocument(content string) bool {
	lower := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(lower, "<!doctype html>") ||
		strings.HasPrefix(lower, "<html>") ||
		strings.HasPrefix(lower, "<html ")
}

// stripCodeFence 去掉模型偶尔包裹的 ```html / ```json 代码块。
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	normalised := strings.ReplaceAll(trimmed, "\r\n", "\n")
	lines := strings.Split(normalised, "\n")
	if len(lines) < 3 {
		return trimmed
	}

	lang := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(lines[0])), "```"))
	if lang != "" && lang != "html" && lang != "json" {
		return trimmed
	}

	closing := -1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return trimmed
	}

	return strings.TrimSpace(strings.Join(lines[1:closing], "\n"))
}
