package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// PageFields 提供路径/缓存键/状态字段，供页面请求日志复用。
func PageFields(action, path, cacheKey, state string) logrus.Fields {
	return logrus.Fields{
		"action":    action,
		"path":      path,
		"cache_key": cacheKey,
		"state":     state,
	}
}

// RequestFields 描述一次 HTTP 请求的访问日志字段。
func RequestFields(requestID, method, path string, status int, latencyMS int64) logrus.Fields {
	return logrus.Fields{
		"action":     "http_request",
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
		"latency_ms": latencyMS,
	}
}
