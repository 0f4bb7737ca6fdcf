// Package config reads the application settings from the environment,
// optionally seeded by a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds every setting of the application.
//
// WARNING: Config contains secrets (database password, API keys) and must not
// be logged as a whole.
type Config struct {
	DBDriver   string `mapstructure:"db_driver"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUsername string `mapstructure:"db_username"`
	DBPassword string `mapstructure:"db_password"` // Secret
	DBName     string `mapstructure:"db_name"`
	DBPath     string `mapstructure:"db_path"`

	AppAddr      string `mapstructure:"app_addr"`
	AppEnv       string `mapstructure:"app_env"`
	LogLevel     string `mapstructure:"log_level"`
	BaseCurrency string `mapstructure:"base_currency"`

	SessionTimeoutSeconds int `mapstructure:"session_timeout"`
	PasswordMinLength     int `mapstructure:"password_min_length"`
	MaxLoginAttempts      int `mapstructure:"max_login_attempts"`
	ItemsPerPage          int `mapstructure:"items_per_page"`

	FreeCurrencyAPIKey string `mapstructure:"freecurrency_api_key"` // Secret
	BorsdataAPIKey     string `mapstructure:"borsdata_api_key"`     // Secret
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`       // Secret
}

var defaults = map[string]any{
	"db_driver":            "sqlite",
	"db_host":              "localhost",
	"db_port":              3306,
	"db_username":          "",
	"db_password":          "",
	"db_name":              "psw",
	"db_path":              "psw.db",
	"app_addr":             ":8080",
	"app_env":              "production",
	"log_level":            "info",
	"base_currency":        "SEK",
	"session_timeout":      3600,
	"password_min_length":  8,
	"max_login_attempts":   5,
	"items_per_page":       50,
	"freecurrency_api_key": "",
	"borsdata_api_key":     "",
	"gemini_api_key":       "",
}

// Load reads the .env files (missing ones are skipped) and then the
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cannot read %s: %w", f, err)
		}
	}
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, d := range defaults {
		v.SetDefault(k, d)
		// AutomaticEnv upper-cases the key: db_driver reads DB_DRIVER.
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.SessionTimeoutSeconds <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.PasswordMinLength <= 0 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive")
	}
	if c.ItemsPerPage <= 0 {
		return fmt.Errorf("ITEMS_PER_PAGE must be positive")
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver != "mysql" {
		return c.DBPath
	}
	mc := mysql.NewConfig()
	mc.User = c.DBUsername
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// SessionTimeout is the inactivity period after which a session expires.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// Development reports whether the application runs in development mode.
func (c *Config) Development() bool { return c.AppEnv == "development" }

// Logger builds the application logger.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Development() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
