package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述服务端运行时行为：监听、缓存存储、模板与日志。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"listen_port"`
	LogLevel        string   `mapstructure:"log_level"`
	LogFilePath     string   `mapstructure:"log_file_path"`
	LogMaxSize      int      `mapstructure:"log_max_size"`
	LogMaxBackups   int      `mapstructure:"log_max_backups"`
	LogCompress     bool     `mapstructure:"log_compress"`
	StorageBackend  string   `mapstructure:"storage_backend"`
	StoragePath     string   `mapstructure:"storage_path"`
	StorageDSN      string   `mapstructure:"storage_dsn"`
	StaticDir       string   `mapstructure:"static_dir"`
	TemplatePath    string   `mapstructure:"template_path"`
	ContentSelector string   `mapstructure:"content_selector"`
	SkipPaths       []string `mapstructure:"skip_paths"`
}

// GeneratorConfig 描述文本生成服务的调用参数与提示词模板。
type GeneratorConfig struct {
	Model                string   `mapstructure:"llm_model"`
	SystemPromptTemplate string   `mapstructure:"system_prompt_template"`
	SearchPromptTemplate string   `mapstructure:"search_prompt_template"`
	APIBaseURL           string   `mapstructure:"api_base_url"`
	APIKeyEnv            string   `mapstructure:"api_key_env"`
	RequestTimeout       Duration `mapstructure:"request_timeout"`
}

// APIKey 从 APIKeyEnv 指定的环境变量中读取密钥，未配置时返回空串。
func (g GeneratorConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(g.APIKeyEnv))
}

// WebsiteProfile 是注入提示词模板的公司画像。
type WebsiteProfile struct {
	CompanyName    string   `mapstructure:"company_name"`
	BusinessType   string   `mapstructure:"business_type"`
	Location       string   `mapstructure:"location"`
	Specialties    []string `mapstructure:"specialties"`
	Values         []string `mapstructure:"values"`
	TargetAudience string   `mapstructure:"target_audience"`
	SiteTone       string   `mapstructure:"site_tone"`
}

// Config 是配置文件映射的整体结构。
type Config struct {
	Global               GlobalConfig      `mapstructure:",squash"`
	Generator            GeneratorConfig   `mapstructure:",squash"`
	Profile              WebsiteProfile    `mapstructure:"website_profile"`
	ContentSubstitutions map[string]string `mapstructure:"content_substitutions"`
}

// Substitutions 返回缓存内容读出时需要替换的占位符；公司名非空时内置 {company_name}。
func (c *Config) Substitutions() map[string]string {
	result := map[string]string{}
	if name := strings.TrimSpace(c.Profile.CompanyName); name != "" {
		result["{company_name}"] = name
	}
	for token, value := range c.ContentSubstitutions {
		if token == "" {
			continue
		}
		result[token] = value
	}
	return result
}

// StorageSummary 输出 backend:location 形式的缓存描述，供启动日志和诊断使用。
func (g GlobalConfig) StorageSummary() string {
	switch g.StorageBackend {
	case "mysql":
		return "mysql"
	case "sqlite":
		return "sqlite:" + g.StorageDSN
	default:
		return g.StorageBackend + ":" + g.StoragePath
	}
}
