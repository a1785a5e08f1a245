package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string

	// RedirectPrefix is prepended to short codes to build short URLs.
	RedirectPrefix string
	// ShortCodeMatch is "exact" or "substring".
	ShortCodeMatch string

	RedisURL string
	CacheTTL time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string

	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

const defaultJWTSecret = "secret"

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "file:db.sqlite")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("BASE_REDIRECT_PREFIX", "http://shorturl.co/go/")
	v.SetDefault("SHORT_CODE_MATCH", "exact")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", 10*time.Minute)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("FRONTEND_URL", "http://localhost:8080/api/v1/mappings")
	v.SetDefault("ALLOWED_EMAILS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)
	v.SetDefault("SERVER_READ_TIMEOUT", 5*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	return &Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		AppEnv:             v.GetString("APP_ENV"),
		BaseURL:            v.GetString("BASE_URL"),
		RedirectPrefix:     v.GetString("BASE_REDIRECT_PREFIX"),
		ShortCodeMatch:     strings.ToLower(v.GetString("SHORT_CODE_MATCH")),
		RedisURL:           v.GetString("REDIS_URL"),
		CacheTTL:           v.GetDuration("CACHE_TTL"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		FrontendURL:        v.GetString("FRONTEND_URL"),
		AllowedEmails:      splitList(v.GetString("ALLOWED_EMAILS")),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		LogFile:            v.GetString("LOG_FILE"),
		LogMaxSizeMB:       v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups:      v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays:      v.GetInt("LOG_MAX_AGE_DAYS"),
		ReadTimeout:        v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout:       v.GetDuration("SERVER_WRITE_TIMEOUT"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate reports settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if !strings.HasSuffix(c.RedirectPrefix, "/") {
		errs = append(errs, fmt.Errorf("BASE_REDIRECT_PREFIX %q must end with '/'", c.RedirectPrefix))
	}
	if c.ShortCodeMatch != "exact" && c.ShortCodeMatch != "substring" {
		errs = append(errs, fmt.Errorf("SHORT_CODE_MATCH must be exact or substring, got %q", c.ShortCodeMatch))
	}
	if c.JWTSecret == "" || (c.IsProduction() && c.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set to a non-default value"))
	}
	if c.RedisURL != "" && c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive when REDIS_URL is set"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
