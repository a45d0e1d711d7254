package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RedisConfig holds connection settings for the result store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DBConfig holds connection settings for the optional Postgres report
// archive.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	LogLevel   slog.Level
	LogFormat  string

	// GitHubToken is an optional server-wide token used when a job carries
	// no credential of its own. Empty means unauthenticated API access.
	GitHubToken string

	OllamaHost string
	ModelName  string

	MaxWorkers int
	QueueSize  int

	// ResultTTL is the retention window of job records. Every write to the
	// result store resets it.
	ResultTTL time.Duration

	FetchTimeout   time.Duration
	AnalyzeTimeout time.Duration
	NotifyTimeout  time.Duration

	Redis RedisConfig

	// ArchiveEnabled turns on the Postgres report archive.
	ArchiveEnabled bool
	Archive        DBConfig
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("MODEL_NAME", "codellama:7b")
	viper.SetDefault("MAX_WORKERS", 5)
	viper.SetDefault("QUEUE_SIZE", 100)
	viper.SetDefault("RESULT_TTL", "24h")
	viper.SetDefault("FETCH_TIMEOUT", "60s")
	viper.SetDefault("ANALYZE_TIMEOUT", "5m")
	viper.SetDefault("NOTIFY_TIMEOUT", "10s")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ARCHIVE_ENABLED", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "warden")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "warden")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	cfg := &Config{
		ServerPort:     viper.GetString("SERVER_PORT"),
		LogLevel:       parseLogLevel(viper.GetString("LOG_LEVEL")),
		LogFormat:      viper.GetString("LOG_FORMAT"),
		GitHubToken:    viper.GetString("GITHUB_TOKEN"),
		OllamaHost:     viper.GetString("OLLAMA_HOST"),
		ModelName:      viper.GetString("MODEL_NAME"),
		MaxWorkers:     viper.GetInt("MAX_WORKERS"),
		QueueSize:      viper.GetInt("QUEUE_SIZE"),
		ResultTTL:      viper.GetDuration("RESULT_TTL"),
		FetchTimeout:   viper.GetDuration("FETCH_TIMEOUT"),
		AnalyzeTimeout: viper.GetDuration("ANALYZE_TIMEOUT"),
		NotifyTimeout:  viper.GetDuration("NOTIFY_TIMEOUT"),
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		ArchiveEnabled: viper.GetBool("ARCHIVE_ENABLED"),
		Archive: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ResultTTL <= 0 {
		return fmt.Errorf("RESULT_TTL must be positive, got %s", c.ResultTTL)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	if c.AnalyzeTimeout <= 0 {
		return fmt.Errorf("ANALYZE_TIMEOUT must be positive, got %s", c.AnalyzeTimeout)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.NotifyTimeout)
	}
	if c.ArchiveEnabled && c.Archive.Database == "" {
		return fmt.Errorf("DB_NAME must be set when ARCHIVE_ENABLED is true")
	}
	return nil
}

// parseLogLevel converts a level string into a slog.Level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", s)
		return slog.LevelInfo
	}
}
