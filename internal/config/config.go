package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

type Config struct {
	ServerPort  string
	AppEnv      string
	AuthDevMode bool
	LogLevel    string
	DB          DBConfig
	JWT         JWTConfig
	S3          S3Config
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_DEV_MODE is disabled")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL: must be a positive duration")
	}
	return nil
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type S3Config struct {
	Region string
	Bucket string
	// PublicBaseURL overrides the default S3 URL when avatars are served
	// through a CDN.
	PublicBaseURL string
}

func Load() Config {
	return Config{
		ServerPort:  envOrDefault("SERVER_PORT", "8080"),
		AppEnv:      envOrDefault("APP_ENV", "local"),
		AuthDevMode: strings.EqualFold(envOrDefault("AUTH_DEV_MODE", "false"), "true"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "taskhub"),
			Password: envOrDefault("DB_PASSWORD", "taskhub"),
			Name:     envOrDefault("DB_NAME", "taskhub"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			TTL:    durationOrDefault("JWT_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Region:        envOrDefault("S3_REGION", "ap-northeast-1"),
			Bucket:        os.Getenv("S3_BUCKET"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func durationOrDefault(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
