package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	S3     S3Config
	OCR    OCRConfig
	Queue  QueueConfig
	CORS   CORSConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AuthConfig holds bearer-token settings for the API.
type AuthConfig struct {
	Secret      string        `mapstructure:"secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	Issuer      string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// OCRProviderConfig holds settings for a single OCR provider.
type OCRProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	Region      string `mapstructure:"region"`
	BinaryPath  string `mapstructure:"binary_path"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Configured reports whether this provider slot is filled in.
func (p *OCRProviderConfig) Configured() bool {
	return p.Provider != ""
}

// OCRConfig holds multi-provider OCR orchestration settings. Providers are
// tried in primary → secondary → tertiary order.
type OCRConfig struct {
	Primary   OCRProviderConfig `mapstructure:"primary"`
	Secondary OCRProviderConfig `mapstructure:"secondary"`
	Tertiary  OCRProviderConfig `mapstructure:"tertiary"`

	// Acceptance predicate knobs.
	MinFreeTextLen int `mapstructure:"min_free_text_len"`
}

// QueueConfig holds analysis queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
	// FileWaveSize bounds how many files of one case are OCRed concurrently.
	FileWaveSize int `mapstructure:"file_wave_size"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the WYNGAI_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WYNGAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "wyngai")
	v.SetDefault("db.password", "wyngai_secret")
	v.SetDefault("db.name", "wyngai_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Auth defaults
	v.SetDefault("auth.secret", "change-me-in-production")
	v.SetDefault("auth.token_expiry", "24h")
	v.SetDefault("auth.issuer", "wyngai")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "wyngai-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// OCR defaults: vision LLM, then cloud OCR, then a local engine.
	v.SetDefault("ocr.primary.provider", "vision")
	v.SetDefault("ocr.primary.api_key", "")
	v.SetDefault("ocr.primary.model", "claude-sonnet-4-20250514")
	v.SetDefault("ocr.primary.timeout_secs", 120)
	v.SetDefault("ocr.secondary.provider", "textract")
	v.SetDefault("ocr.secondary.region", "us-east-1")
	v.SetDefault("ocr.secondary.timeout_secs", 60)
	v.SetDefault("ocr.tertiary.provider", "tesseract")
	v.SetDefault("ocr.tertiary.binary_path", "tesseract")
	v.SetDefault("ocr.tertiary.timeout_secs", 60)
	v.SetDefault("ocr.min_free_text_len", 50)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.file_wave_size", 3)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "WYNGAI_SERVER_PORT",
		"server.read_timeout":       "WYNGAI_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "WYNGAI_SERVER_WRITE_TIMEOUT",
		"server.environment":        "WYNGAI_SERVER_ENVIRONMENT",
		"db.host":                   "WYNGAI_DB_HOST",
		"db.port":                   "WYNGAI_DB_PORT",
		"db.user":                   "WYNGAI_DB_USER",
		"db.password":               "WYNGAI_DB_PASSWORD",
		"db.name":                   "WYNGAI_DB_NAME",
		"db.sslmode":                "WYNGAI_DB_SSLMODE",
		"db.max_open":               "WYNGAI_DB_MAX_OPEN",
		"db.max_idle":               "WYNGAI_DB_MAX_IDLE",
		"auth.secret":               "WYNGAI_AUTH_SECRET",
		"auth.token_expiry":         "WYNGAI_AUTH_TOKEN_EXPIRY",
		"auth.issuer":               "WYNGAI_AUTH_ISSUER",
		"s3.region":                 "WYNGAI_S3_REGION",
		"s3.bucket":                 "WYNGAI_S3_BUCKET",
		"s3.endpoint":               "WYNGAI_S3_ENDPOINT",
		"s3.access_key":             "WYNGAI_S3_ACCESS_KEY",
		"s3.secret_key":             "WYNGAI_S3_SECRET_KEY",
		"s3.max_file_size_mb":       "WYNGAI_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":         "WYNGAI_S3_PRESIGN_EXPIRY",
		"ocr.primary.provider":      "WYNGAI_OCR_PRIMARY_PROVIDER",
		"ocr.primary.api_key":       "WYNGAI_OCR_PRIMARY_API_KEY",
		"ocr.primary.model":         "WYNGAI_OCR_PRIMARY_MODEL",
		"ocr.primary.timeout_secs":  "WYNGAI_OCR_PRIMARY_TIMEOUT_SECS",
		"ocr.secondary.provider":    "WYNGAI_OCR_SECONDARY_PROVIDER",
		"ocr.secondary.region":      "WYNGAI_OCR_SECONDARY_REGION",
		"ocr.secondary.timeout_secs": "WYNGAI_OCR_SECONDARY_TIMEOUT_SECS",
		"ocr.tertiary.provider":     "WYNGAI_OCR_TERTIARY_PROVIDER",
		"ocr.tertiary.binary_path":  "WYNGAI_OCR_TERTIARY_BINARY_PATH",
		"ocr.tertiary.timeout_secs": "WYNGAI_OCR_TERTIARY_TIMEOUT_SECS",
		"ocr.min_free_text_len":     "WYNGAI_OCR_MIN_FREE_TEXT_LEN",
		"queue.poll_interval_secs":  "WYNGAI_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":         "WYNGAI_QUEUE_MAX_RETRIES",
		"queue.concurrency":         "WYNGAI_QUEUE_CONCURRENCY",
		"queue.file_wave_size":      "WYNGAI_QUEUE_FILE_WAVE_SIZE",
		"cors.allowed_origins":      "WYNGAI_CORS_ALLOWED_ORIGINS",
		"log.level":                 "WYNGAI_LOG_LEVEL",
		"log.format":                "WYNGAI_LOG_FORMAT",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Viper does not split comma-separated env values for string slices.
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = strings.Split(cfg.CORS.AllowedOrigins[0], ",")
	}

	return &cfg, nil
}
