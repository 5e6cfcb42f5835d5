package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Session backends understood by Load and the session package.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// APIConfig holds settings for talking to the remote document API.
type APIConfig struct {
	BaseURL    string
	AuthHeader string
	// Timeout of zero means requests are never cut off by the client.
	Timeout time.Duration
}

// SessionConfig selects and configures the token store.
type SessionConfig struct {
	Backend string
	File    string
	Redis   RedisConfig
}

// RedisConfig holds settings for the shared session backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RenderConfig controls how list items are displayed.
type RenderConfig struct {
	DateLayout  string
	Location    *time.Location
	Placeholder string
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig controls the optional Pushgateway export.
type MetricsConfig struct {
	PushURL string
	Job     string
}

// AppConfig is the centralized configuration struct for the client.
// It is populated from environment variables; CLI flags override it afterwards.
type AppConfig struct {
	API     APIConfig
	Session SessionConfig
	Render  RenderConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    getEnv("DOCKEEPER_API_URL", "http://localhost:5000"),
			AuthHeader: getEnv("DOCKEEPER_AUTH_HEADER", "x-auth-token"),
			Timeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 0)) * time.Second,
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", BackendFile),
			File:    getEnv("DOCKEEPER_SESSION_FILE", defaultSessionFile()),
			Redis: RedisConfig{
				Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
				Password:  getEnv("REDIS_PASSWORD", ""),
				DB:        getEnvInt("REDIS_DB", 0),
				KeyPrefix: getEnv("REDIS_KEY_PREFIX", "dockeeper:"),
			},
		},
		Render: RenderConfig{
			DateLayout:  getEnv("DATE_LAYOUT", "2 Jan 2006"),
			Location:    getEnvLocation("TZ_LOCATION", time.Local),
			Placeholder: getEnv("THUMBNAIL_PLACEHOLDER", "https://via.placeholder.com/150/0072ff/FFFFFF?Text=FILE"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			PushURL: getEnv("METRICS_PUSH_URL", ""),
			Job:     getEnv("METRICS_JOB", "dockeeper"),
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api url %q: scheme must be http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api url %q: host is required", c.API.BaseURL)
	}
	if c.API.AuthHeader == "" {
		return fmt.Errorf("auth header name is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("http timeout must not be negative")
	}
	switch c.Session.Backend {
	case BackendFile:
		if c.Session.File == "" {
			return fmt.Errorf("session file path is required for the file backend")
		}
	case BackendRedis:
		if c.Session.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "dockeeper", "session.yaml")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
	}
	return def
}
