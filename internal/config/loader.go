package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultPath 是未指定 -config 与 DYNSITE_CONFIG 时使用的配置文件。
const DefaultPath = "config.json"

// Load 读取并解析配置文件，同时注入默认值与校验逻辑。
//
// 文件缺失或内容无法解析时不会中断启动：返回默认配置，并附带包装了
// ErrUsingDefaults 的错误。语义校验失败（端口越界等）仍然返回 nil 配置。
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg, loadErr := decode(path)
	if loadErr != nil {
		cfg = Default()
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absStorage, err := filepath.Abs(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.StoragePath = absStorage
	if cfg.Global.StorageBackend == "sqlite" && cfg.Global.StorageDSN == "" {
		cfg.Global.StorageDSN = filepath.Join(absStorage, "dynsite.db")
	}

	if loadErr != nil {
		return cfg, fmt.Errorf("%w: %v", ErrUsingDefaults, loadErr)
	}
	return cfg, nil
}

// Default 返回只包含默认值的配置。
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func decode(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix("DYNSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_port", 3006)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file_path", "")
	v.SetDefault("log_max_size", 100)
	v.SetDefault("log_max_backups", 10)
	v.SetDefault("log_compress", true)
	v.SetDefault("storage_backend", "fs")
	v.SetDefault("storage_path", "./cache")
	v.SetDefault("storage_dsn", "")
	v.SetDefault("static_dir", "./static")
	v.SetDefault("template_path", "./index.html")
	v.SetDefault("content_selector", defaultContentSelector)
	v.SetDefault("skip_paths", defaultSkipPaths)
	v.SetDefault("llm_model", defaultModel)
	v.SetDefault("api_base_url", defaultAPIBaseURL)
	v.SetDefault("api_key_env", "OPENAI_API_KEY")
	v.SetDefault("request_timeout", "60s")
}

const (
	defaultModel           = "gpt-4o-mini"
	defaultAPIBaseURL      = "https://api.openai.com/v1"
	defaultContentSelector = "#main-content"
)

var defaultSkipPaths = []string{"/favicon.ico", "/robots.txt", "/static/"}

func applyDefaults(cfg *Config) {
	g := &cfg.Global
	if g.ListenPort == 0 {
		g.ListenPort = 3006
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	g.StorageBackend = strings.ToLower(strings.TrimSpace(g.StorageBackend))
	if g.StorageBackend == "" {
		g.StorageBackend = "fs"
	}
	if g.StoragePath == "" {
		g.StoragePath = "./cache"
	}
	if g.StaticDir == "" {
		g.StaticDir = "./static"
	}
	if g.TemplatePath == "" {
		g.TemplatePath = "./index.html"
	}
	if strings.TrimSpace(g.ContentSelector) == "" {
		g.ContentSelector = defaultContentSelector
	}
	if g.SkipPaths == nil {
		g.SkipPaths = append([]string(nil), defaultSkipPaths...)
	}

	gen := &cfg.Generator
	if gen.Model == "" {
		gen.Model = defaultModel
	}
	if gen.APIBaseURL == "" {
		gen.APIBaseURL = defaultAPIBaseURL
	}
	gen.APIBaseURL = strings.TrimRight(gen.APIBaseURL, "/")
	if gen.APIKeyEnv == "" {
		gen.APIKeyEnv = "OPENAI_API_KEY"
	}
	if gen.RequestTimeout.DurationValue() == 0 {
		gen.RequestTimeout = Duration(60 * time.Second)
	}
	if strings.TrimSpace(gen.SystemPromptTemplate) == "" {
		gen.SystemPromptTemplate = DefaultSystemPromptTemplate
	}
	if strings.TrimSpace(gen.SearchPromptTemplate) == "" {
		gen.SearchPromptTemplate = DefaultSearchPromptTemplate
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// IsFallback 报告 Load 返回的错误是否只是“已退回默认配置”的告警。
func IsFallback(err error) bool {
	return errors.Is(err, ErrUsingDefaults)
}
