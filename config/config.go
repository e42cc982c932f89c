package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// PlaceholderWebhookURL is the sentinel left in place until a real webhook
// URL is supplied. It reads as "not configured" on the status endpoint and
// blocks chat completions before any upstream call is attempted.
const PlaceholderWebhookURL = "YOUR_N8N_WEBHOOK_URL"

// Config 应用配置
type Config struct {
	Server    ServerConfig
	N8N       N8NConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Metrics   MetricsConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string
}

// N8NConfig n8n webhook 配置
type N8NConfig struct {
	WebhookURL       string
	AuthToken        string // 可选的 Bearer token,禁止写入日志
	ModelName        string
	ModelDescription string
	Timeout          time.Duration // 单一端到端超时,覆盖连接+传输全程
	MaxRetries       int

	DefaultTemperature float64
	DefaultMaxTokens   int
	DefaultTopP        float64

	Debug     bool
	TLSVerify bool // false 时跳过上游证书校验(仅用于内网部署)
}

// AuthConfig API key 认证配置
type AuthConfig struct {
	Enabled bool
	APIKeys []string
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled         bool
	RequestsPerSec  float64
	Burst           int
	CleanupInterval time.Duration
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level string
}

// StoreConfig 请求日志存储配置
type StoreConfig struct {
	Path string // SQLite 文件路径,为空时禁用
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool
}

// Configured reports whether a real webhook URL has been supplied.
func (c *Config) Configured() bool {
	return c.N8N.WebhookURL != "" && c.N8N.WebhookURL != PlaceholderWebhookURL
}

// Load 加载配置,缺失或非法的值回退到内置默认值,永不失败
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3001"),
		},
		N8N: N8NConfig{
			WebhookURL:       getEnv("N8N_WEBHOOK_URL", PlaceholderWebhookURL),
			AuthToken:        getEnv("N8N_WEBHOOK_AUTH_TOKEN", ""),
			ModelName:        getEnv("N8N_MODEL_NAME", "n8n-agent"),
			ModelDescription: getEnv("N8N_MODEL_DESCRIPTION", "n8n Webhook Agent for AI interactions"),
			Timeout:          getDurationEnv("N8N_TIMEOUT", 120*time.Second),
			MaxRetries:       getIntEnv("N8N_MAX_RETRIES", 3),

			DefaultTemperature: getFloatEnv("N8N_DEFAULT_TEMPERATURE", 0.7),
			DefaultMaxTokens:   getIntEnv("N8N_DEFAULT_MAX_TOKENS", 2048),
			DefaultTopP:        getFloatEnv("N8N_DEFAULT_TOP_P", 1.0),

			Debug:     getBoolEnv("N8N_DEBUG", false),
			TLSVerify: getBoolEnv("N8N_TLS_VERIFY", true),
		},
		Auth: AuthConfig{
			Enabled: getBoolEnv("AUTH_ENABLED", false),
			APIKeys: getListEnv("API_KEYS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", false),
			RequestsPerSec:  getFloatEnv("RATE_LIMIT_REQUESTS_PER_SEC", 10),
			Burst:           getIntEnv("RATE_LIMIT_BURST", 20),
			CleanupInterval: getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Path: getEnv("REQUEST_LOG_DB", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("METRICS_ENABLED", true),
		},
	}
}

// getEnv 获取环境变量
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv 获取时长类型的环境变量(支持秒为单位)
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 尝试解析为秒数
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		// 尝试解析为 Go duration 格式 (如 "25s", "10m", "1h")
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv 获取整数类型的环境变量
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getFloatEnv 获取浮点类型的环境变量
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getBoolEnv 获取布尔类型的环境变量
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(strings.TrimSpace(value))
		return value == "true" || value == "1" || value == "yes" || value == "on"
	}
	return defaultValue
}

// getListEnv 获取逗号分隔的列表环境变量
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
