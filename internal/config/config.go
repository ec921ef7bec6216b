package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/rag-console/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// ServerConfig holds the API server configuration
type ServerConfig struct {
	ServerAddr   string `env:"SERVER_ADDR" envDefault:":8000"`
	APIServerKey string `env:"API_SERVER_KEY,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	LLMCfg LLMConfig `envPrefix:"LLM_"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	EnableMocks bool   `env:"ENABLE_MOCKS" envDefault:"false"`

	// HistoryTTL bounds how long an idle chat history is kept in memory.
	HistoryTTL time.Duration `env:"HISTORY_TTL" envDefault:"2h"`

	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// LLMConfig points at an OpenAI-compatible provider.
type LLMConfig struct {
	BaseURL    string        `env:"BASE_URL"`
	APIKey     string        `env:"API_KEY"`
	ChatModel  string        `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbedModel string        `env:"EMBED_MODEL" envDefault:"text-embedding-3-small"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"120s"`
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"2"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"`   // 5 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"26214400"` // 25 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"64"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB
}

// ConsoleConfig holds what the console needs to reach the API server.
type ConsoleConfig struct {
	APIServerURL  string               `env:"API_SERVER_URL" envDefault:"http://127.0.0.1"`
	APIServerPort int                  `env:"API_SERVER_PORT" envDefault:"8000"`
	APIServerKey  string               `env:"API_SERVER_KEY,notEmpty"`
	Client        string               `env:"CLIENT" envDefault:"default"`
	Timeout       time.Duration        `env:"API_TIMEOUT" envDefault:"60s"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
	Transport     HTTPTransportConfig  `envPrefix:"HTTP_"`
	LogLevel      string               `env:"LOG_LEVEL" envDefault:"warn"`

	Environment string
}

// HTTPTransportConfig tunes the connection pool of the API client.
type HTTPTransportConfig struct {
	DialTimeout         time.Duration `env:"DIAL_TIMEOUT" envDefault:"10s"`
	KeepAlive           time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	TLSHandshakeTimeout time.Duration `env:"TLS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	IdleConnTimeout     time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	MaxIdleConns        int           `env:"MAX_IDLE_CONNS" envDefault:"100"`
	MaxIdleConnsPerHost int           `env:"MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
	InsecureSkipVerify  bool          `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// BaseURL joins the server URL and port.
func (c *ConsoleConfig) BaseURL() (string, error) {
	u, err := url.Parse(strings.TrimRight(c.APIServerURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid API_SERVER_URL %q", c.APIServerURL)
	}
	if u.Port() == "" && c.APIServerPort > 0 {
		u.Host = fmt.Sprintf("%s:%d", u.Hostname(), c.APIServerPort)
	}
	return u.String(), nil
}

// BotConfig holds the Telegram frontend configuration
type BotConfig struct {
	ConsoleConfig
	BotToken           string        `env:"TELEGRAM_BOT_TOKEN,notEmpty"`
	UpdateTimeout      int           `env:"TELEGRAM_UPDATE_TIMEOUT" envDefault:"60"`
	MaxConcurrentUsers int           `env:"TELEGRAM_MAX_CONCURRENT_USERS" envDefault:"32"`
	ShutdownTimeout    time.Duration `env:"TELEGRAM_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadServerConfig reads the server configuration; -env selects the .env file.
func LoadServerConfig() (*ServerConfig, error) {
	environment := loadEnvFile()

	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Environment = environment

	if err := validateServerConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConsoleConfig reads the console configuration from the already selected environment.
func LoadConsoleConfig(environment string) (*ConsoleConfig, error) {
	if environment == "" {
		environment = "local"
	}
	loadDotEnv(environment)

	cfg := &ConsoleConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Environment = environment

	if err := validateConsoleConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadBotConfig reads the Telegram bot configuration; -env selects the .env file.
func LoadBotConfig() (*BotConfig, error) {
	environment := loadEnvFile()

	cfg := &BotConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Environment = environment

	var errs []string
	if err := validateConsoleConfig(&cfg.ConsoleConfig); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.UpdateTimeout < 1 || cfg.UpdateTimeout > 600 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_UPDATE_TIMEOUT must be between 1 and 600, got %d", cfg.UpdateTimeout))
	}
	if cfg.MaxConcurrentUsers < 1 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_MAX_CONCURRENT_USERS must be positive, got %d", cfg.MaxConcurrentUsers))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func loadEnvFile() string {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	loadDotEnv(*envFlag)
	return *envFlag
}

func loadDotEnv(environment string) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}
}

func validateServerConfig(cfg *ServerConfig) error {
	var errs []string

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}
	if !cfg.EnableMocks && cfg.LLMCfg.APIKey == "" && cfg.LLMCfg.BaseURL == "" {
		errs = append(errs, "LLM_API_KEY or LLM_BASE_URL must be set unless ENABLE_MOCKS is on")
	}
	if cfg.HistoryTTL <= 0 {
		errs = append(errs, fmt.Sprintf("HISTORY_TTL must be positive, got %s", cfg.HistoryTTL))
	}
	if cfg.FileUploadCfg.MaxFileCount < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_COUNT must be positive, got %d", cfg.FileUploadCfg.MaxFileCount))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateConsoleConfig(cfg *ConsoleConfig) error {
	if _, err := cfg.BaseURL(); err != nil {
		return err
	}
	if cfg.Retry.BackoffFactor < 0 {
		return fmt.Errorf("RETRY_BACKOFF_FACTOR must not be negative, got %s", cfg.Retry.BackoffFactor)
	}
	if cfg.Retry.Retries != nil && *cfg.Retry.Retries < 0 {
		return fmt.Errorf("RETRY_RETRIES must not be negative, got %d", *cfg.Retry.Retries)
	}
	if cfg.Transport.MaxIdleConns < 0 || cfg.Transport.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("HTTP_MAX_IDLE_CONNS and HTTP_MAX_IDLE_CONNS_PER_HOST must not be negative")
	}
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "", "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
