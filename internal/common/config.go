package common

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
}

// DatabaseConfig holds database-related configuration.
// DSN selects the driver: postgres:// URLs go through pgx, anything else is
// treated as a SQLite path (":memory:" included).
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// LLMConfig holds the vision extraction provider configuration. It is
// injected into the extraction client at construction, never read ambiently.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables with an optional
// .env file, using viper for defaults and overrides.
func LoadConfig() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("DB_URL", "labcase.db")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "5m")
	v.SetDefault("DB_DIAL_TIMEOUT", "3s")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("AI_API_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TEMPERATURE", 0.1)
	v.SetDefault("AI_TIMEOUT", "45s")

	for _, key := range []string{
		"DB_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME", "DB_DIAL_TIMEOUT",
		"HTTP_ADDR",
		"AI_API_BASE_URL", "AI_API_KEY", "AI_MODEL", "AI_TEMPERATURE", "AI_TIMEOUT",
	} {
		_ = v.BindEnv(key)
	}

	// Read .env if present, but don't fail when it's missing.
	_ = v.ReadInConfig()

	return &Config{
		Database: DatabaseConfig{
			DSN:             v.GetString("DB_URL"),
			MaxConns:        v.GetInt32("DB_MAX_CONNS"),
			MinConns:        v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime: v.GetDuration("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime: v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
			DialTimeout:     v.GetDuration("DB_DIAL_TIMEOUT"),
		},
		Server: ServerConfig{
			HTTPAddr: v.GetString("HTTP_ADDR"),
		},
		LLM: LLMConfig{
			BaseURL:     v.GetString("AI_API_BASE_URL"),
			APIKey:      v.GetString("AI_API_KEY"),
			Model:       v.GetString("AI_MODEL"),
			Temperature: float32(v.GetFloat64("AI_TEMPERATURE")),
			Timeout:     v.GetDuration("AI_TIMEOUT"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "AI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
