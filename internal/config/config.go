package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is built once at startup and never mutated afterwards.
type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	LogLevel    string         `mapstructure:"log_level"`
	Environment string         `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            string   `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	// TrustedProxy makes the server take the client address from
	// X-Forwarded-For / X-Real-IP. Leave it off unless a proxy sets them.
	TrustedProxy bool `mapstructure:"trusted_proxy"`
}

// AuthConfig is the single admin identity and the static bearer token
// handed out on login.
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig enables login throttling when Addr is set.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	LoginLimit int    `mapstructure:"login_limit"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.host":             "HOST",
	"server.read_timeout":     "READ_TIMEOUT",
	"server.write_timeout":    "WRITE_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"server.cors_origins":     "CORS_ALLOWED_ORIGINS",
	"server.trusted_proxy":    "TRUSTED_PROXY",
	"auth.username":           "ADMIN_USERNAME",
	"auth.password":           "ADMIN_PASSWORD",
	"auth.token":              "ADMIN_TOKEN",
	"database.url":            "DATABASE_URL",
	"database.max_open_conns": "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns": "DATABASE_MAX_IDLE_CONNS",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"redis.login_limit":       "LOGIN_RATE_LIMIT",
	"metrics.addr":            "METRICS_ADDR",
	"log_level":               "LOG_LEVEL",
	"environment":             "ENVIRONMENT",
}

// Load reads configuration from a .env file (if present), the environment
// and an optional YAML file. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.shutdown_timeout", 30)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.trusted_proxy", false)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("redis.login_limit", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", "development")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid. Every missing required
// variable is reported in one error.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		env   string
		value string
	}{
		{"DATABASE_URL", c.Database.URL},
		{"ADMIN_USERNAME", c.Auth.Username},
		{"ADMIN_PASSWORD", c.Auth.Password},
		{"ADMIN_TOKEN", c.Auth.Token},
		{"PORT", c.Server.Port},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if c.Redis.Addr != "" && c.Redis.LoginLimit <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be positive when REDIS_ADDR is set")
	}

	validLogLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Addr is the host:port the API listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
