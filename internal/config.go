package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the configuration purely from environment
// variables, used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_SOURCE", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("SECURITY_ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   getEnv("SECURITY_REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("SECURITY_ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("SECURITY_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("SECURITY_BCRYPT_COST", 10),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOGGING_LEVEL", "info"),
				Format: getEnv("LOGGING_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= 0 {
		return errors.New("token durations must be positive")
	}
	return nil
}
