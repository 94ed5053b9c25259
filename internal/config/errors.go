package config

import (
	"errors"
	"fmt"
)

// ErrUsingDefaults 表示配置文件缺失或无法解析，Load 已退回默认配置。
// 调用方应记录告警后继续启动。
var ErrUsingDefaults = errors.New("config unavailable, using defaults")

// FieldError 提供字段路径与错误原因，便于 CLI 向用户反馈。
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// newFieldError 创建包含字段路径与原因的 error，便于 CLI 定位。
func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}
