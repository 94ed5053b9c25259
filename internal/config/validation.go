package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedBackends = map[string]struct{}{
	"fs":     {},
	"sqlite": {},
	"mysql":  {},
}

const supportedBackendList = "fs|sqlite|mysql"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("listen_port", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("log_level", "无法识别的日志级别")
	}
	if _, ok := supportedBackends[g.StorageBackend]; !ok {
		return newFieldError("storage_backend", "仅支持 "+supportedBackendList)
	}
	if g.StorageBackend == "fs" && strings.TrimSpace(g.StoragePath) == "" {
		return newFieldError("storage_path", "不能为空")
	}
	if g.StorageBackend == "mysql" && strings.TrimSpace(g.StorageDSN) == "" {
		return newFieldError("storage_dsn", "mysql 后端必须提供 DSN")
	}
	for _, p := range g.SkipPaths {
		if !strings.HasPrefix(p, "/") {
			return newFieldError("skip_paths", "路径必须以 / 开头: "+p)
		}
	}

	gen := c.Generator
	if strings.TrimSpace(gen.Model) == "" {
		return newFieldError("llm_model", "不能为空")
	}
	if gen.RequestTimeout.DurationValue() <= 0 {
		return newFieldError("request_timeout", "必须大于 0")
	}
	if err := validateBaseURL(gen.APIBaseURL); err != nil {
		return newFieldError("api_base_url", err.Error())
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("仅支持 http/https")
	}
	if parsed.Host == "" {
		return errors.New("缺少 Host")
	}
	return nil
}
