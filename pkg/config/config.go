package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/logger"
	"github.com/betbot/systock/pkg/tokenstore"
)

// KISConfig 应用凭证与账户
type KISConfig struct {
	AppKey    string   `yaml:"app_key" json:"app_key"`
	AppSecret string   `yaml:"app_secret" json:"app_secret"`
	AccountNo string   `yaml:"account_no" json:"account_no"` // 12345678-01
	Mode      string   `yaml:"mode" json:"mode"`             // real / virtual
	BaseURL   string   `yaml:"base_url" json:"base_url"`     // 为空时按 mode 选择
	Timeout   Duration `yaml:"timeout" json:"timeout"`
}

// TokenStoreConfig token 缓存后端
type TokenStoreConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // file / badger / sqlite / memory
	Path          string `yaml:"path" json:"path"`
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"` // 仅 badger
}

// RateLimitConfig 发放类接口的限流
type RateLimitConfig struct {
	TokenIssueLimit     int      `yaml:"token_issue_limit" json:"token_issue_limit"`
	TokenIssueWindow    Duration `yaml:"token_issue_window" json:"token_issue_window"`
	ApprovalIssueLimit  int      `yaml:"approval_issue_limit" json:"approval_issue_limit"`
	ApprovalIssueWindow Duration `yaml:"approval_issue_window" json:"approval_issue_window"`
}

// PacingConfig 连续请求之间的间隔
type PacingConfig struct {
	PageDelay   Duration `yaml:"page_delay" json:"page_delay"`
	CancelDelay Duration `yaml:"cancel_delay" json:"cancel_delay"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"` // 天
	Compress   bool   `yaml:"compress" json:"compress"`
}

// GatewayConfig HTTP 网关
type GatewayConfig struct {
	Listen    string   `yaml:"listen" json:"listen"`
	JWTSecret string   `yaml:"jwt_secret" json:"jwt_secret"`
	TokenTTL  Duration `yaml:"token_ttl" json:"token_ttl"`
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// Config 应用配置
type Config struct {
	KIS        KISConfig        `yaml:"kis" json:"kis"`
	TokenStore TokenStoreConfig `yaml:"token_store" json:"token_store"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Pacing     PacingConfig     `yaml:"pacing" json:"pacing"`
	Log        LogConfig        `yaml:"log" json:"log"`
	Gateway    GatewayConfig    `yaml:"gateway" json:"gateway"`
	Proxy      *ProxyConfig     `yaml:"proxy" json:"proxy"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		KIS: KISConfig{
			Mode:    string(types.EnvVirtual),
			Timeout: Duration{30 * time.Second},
		},
		TokenStore: TokenStoreConfig{
			Backend: string(tokenstore.BackendFile),
			Path:    "data/kis_token.json",
		},
		RateLimit: RateLimitConfig{
			TokenIssueLimit:     1,
			TokenIssueWindow:    Duration{time.Minute},
			ApprovalIssueLimit:  1,
			ApprovalIssueWindow: Duration{time.Minute},
		},
		Pacing: PacingConfig{
			PageDelay:   Duration{50 * time.Millisecond},
			CancelDelay: Duration{50 * time.Millisecond},
		},
		Log: LogConfig{
			Level:      "info",
			File:       "logs/systock.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Gateway: GatewayConfig{
			Listen:   ":8080",
			TokenTTL: Duration{12 * time.Hour},
		},
	}
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）。
// 当前目录存在 .env 时先载入，已有的环境变量不会被覆盖。
func Load(filePath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if filePath != "" {
		if err := loadConfigFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	// 设置代理环境变量（供 HTTP 客户端使用）
	if cfg.Proxy != nil && cfg.Proxy.Host != "" {
		proxyURL := fmt.Sprintf("http://%s:%d", cfg.Proxy.Host, cfg.Proxy.Port)
		os.Setenv("HTTP_PROXY", proxyURL)
		os.Setenv("HTTPS_PROXY", proxyURL)
		logger.Infof("使用代理: %s", proxyURL)
	}
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON），覆盖到 cfg 上
func loadConfigFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}
	return nil
}

// applyEnv 环境变量覆盖
func applyEnv(cfg *Config) error {
	setString(&cfg.KIS.AppKey, "KIS_APP_KEY")
	setString(&cfg.KIS.AppSecret, "KIS_APP_SECRET")
	setString(&cfg.KIS.AccountNo, "KIS_ACC_NO")
	setString(&cfg.KIS.Mode, "KIS_MODE")
	setString(&cfg.KIS.BaseURL, "KIS_BASE_URL")
	setString(&cfg.TokenStore.Backend, "SYSTOCK_TOKEN_STORE")
	setString(&cfg.TokenStore.Path, "SYSTOCK_TOKEN_STORE_PATH")
	setString(&cfg.TokenStore.EncryptionKey, "SYSTOCK_TOKEN_STORE_KEY")
	setString(&cfg.Log.Level, "SYSTOCK_LOG_LEVEL")
	setString(&cfg.Log.File, "SYSTOCK_LOG_FILE")
	setString(&cfg.Gateway.Listen, "SYSTOCK_GATEWAY_LISTEN")
	setString(&cfg.Gateway.JWTSecret, "SYSTOCK_GATEWAY_JWT_SECRET")

	if err := setInt(&cfg.RateLimit.TokenIssueLimit, "SYSTOCK_TOKEN_ISSUE_LIMIT"); err != nil {
		return err
	}
	for key, dst := range map[string]*Duration{
		"KIS_TIMEOUT":               &cfg.KIS.Timeout,
		"SYSTOCK_PAGE_DELAY":        &cfg.Pacing.PageDelay,
		"SYSTOCK_CANCEL_DELAY":      &cfg.Pacing.CancelDelay,
		"SYSTOCK_GATEWAY_TOKEN_TTL": &cfg.Gateway.TokenTTL,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := getEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := getEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &types.ConfigError{Field: key, Reason: fmt.Sprintf("must be an integer, got %q", v)}
	}
	*dst = n
	return nil
}

func setDuration(dst *Duration, key string) error {
	v, ok := getEnv(key)
	if !ok {
		return nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return &types.ConfigError{Field: key, Reason: err.Error()}
	}
	*dst = d
	return nil
}

// Validate 检查必需字段，错误类型为 *types.ConfigError
func (c *Config) Validate() error {
	if _, err := c.Credential(); err != nil {
		return err
	}
	if _, err := tokenstore.ParseBackend(c.TokenStore.Backend); err != nil {
		return &types.ConfigError{Field: "token_store.backend", Reason: err.Error()}
	}
	if c.RateLimit.TokenIssueLimit <= 0 || c.RateLimit.TokenIssueWindow.Duration <= 0 {
		return &types.ConfigError{Field: "rate_limit.token_issue", Reason: "limit and window must be positive"}
	}
	if c.RateLimit.ApprovalIssueLimit <= 0 || c.RateLimit.ApprovalIssueWindow.Duration <= 0 {
		return &types.ConfigError{Field: "rate_limit.approval_issue", Reason: "limit and window must be positive"}
	}
	if c.Pacing.PageDelay.Duration < 0 || c.Pacing.CancelDelay.Duration < 0 {
		return &types.ConfigError{Field: "pacing", Reason: "delays must not be negative"}
	}
	return nil
}

// ValidateGateway 网关额外需要签名密钥
func (c *Config) ValidateGateway() error {
	if len(c.Gateway.JWTSecret) < 16 {
		return &types.ConfigError{Field: "gateway.jwt_secret", Reason: "must be at least 16 characters"}
	}
	if c.Gateway.TokenTTL.Duration <= 0 {
		return &types.ConfigError{Field: "gateway.token_ttl", Reason: "must be positive"}
	}
	return nil
}

// Credential 由配置构建凭证
func (c *Config) Credential() (types.Credential, error) {
	env, err := types.ParseEnvironment(c.KIS.Mode)
	if err != nil {
		return types.Credential{}, &types.ConfigError{Field: "kis.mode", Reason: err.Error()}
	}
	return types.NewCredential(c.KIS.AppKey, c.KIS.AppSecret, c.KIS.AccountNo, env)
}

// LoggerConfig 转换为 logger.Config
func (c *Config) LoggerConfig(quiet bool) logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		OutputFile: c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Quiet:      quiet,
	}
}

// TokenStoreOptions 转换为 tokenstore.Options
func (c *Config) TokenStoreOptions() tokenstore.Options {
	return tokenstore.Options{
		Backend:       tokenstore.Backend(c.TokenStore.Backend),
		Path:          c.TokenStore.Path,
		EncryptionKey: c.TokenStore.EncryptionKey,
	}
}
