// Package config provides application configuration loaded from
// environment variables with defaults and validation.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is reported on the health surface.
const Version = "1.0.0"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all recognized options and their effects.
type Config struct {
	// Server
	Host    string
	Port    string
	GinMode string // debug|release|test

	Environment string // development|production

	// Admin surface protection
	AllowedOrigins       []string
	RateLimitWindow      time.Duration // RATE_LIMIT_WINDOW_MS
	RateLimitMaxRequests int

	// Chat
	MaxMessageLength      int           // [1,10000]
	MaxChatDuration       time.Duration // MAX_CHAT_DURATION_MS
	ContentFilterEnabled  bool
	ProfanityFilterStrict bool

	// WebRTC bootstrap, passed opaquely to clients
	StunServers []string
	TurnServers []string

	// Logging
	LogLevel string
	LogPath  string
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies
// defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Host:        getenv("HOST", "0.0.0.0"),
		Port:        getenv("PORT", "8080"),
		GinMode:     strings.ToLower(getenv("GIN_MODE", "release")),
		Environment: strings.ToLower(getenv("ENVIRONMENT", EnvDevelopment)),

		AllowedOrigins:       splitCSV(getenv("ALLOWED_ORIGINS", "")),
		RateLimitWindow:      getms("RATE_LIMIT_WINDOW_MS", time.Minute),
		RateLimitMaxRequests: getint("RATE_LIMIT_MAX_REQUESTS", 100),

		MaxMessageLength:      getint("MAX_MESSAGE_LENGTH", 500),
		MaxChatDuration:       getms("MAX_CHAT_DURATION_MS", time.Hour),
		ContentFilterEnabled:  getbool("CONTENT_FILTER_ENABLED", true),
		ProfanityFilterStrict: getbool("PROFANITY_FILTER_STRICT", false),

		StunServers: splitCSV(getenv("STUN_SERVERS", "stun:stun.l.google.com:19302")),
		TurnServers: splitCSV(getenv("TURN_SERVERS", "")),

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPath:  getenv("LOG_PATH", ""),
	}

	if cfg.MaxMessageLength < 1 {
		cfg.MaxMessageLength = 1
	}
	if cfg.MaxMessageLength > 10000 {
		cfg.MaxMessageLength = 10000
	}

	if cfg.Environment != EnvDevelopment && cfg.Environment != EnvProduction {
		return cfg, errors.New("config: ENVIRONMENT must be development or production")
	}
	if cfg.Environment == EnvProduction && len(cfg.AllowedOrigins) == 0 {
		return cfg, errors.New("config: ALLOWED_ORIGINS must be set in production")
	}
	return cfg, nil
}

// Production reports whether the instance runs in production mode.
// The debug surface is only mounted outside of it.
func (c Config) Production() bool {
	return c.Environment == EnvProduction
}

// ICEServers merges the STUN and TURN lists for the client config
// endpoint. The core never interprets these values.
func (c Config) ICEServers() []string {
	out := make([]string, 0, len(c.StunServers)+len(c.TurnServers))
	out = append(out, c.StunServers...)
	out = append(out, c.TurnServers...)
	return out
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getint(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// getms reads a duration given in whole milliseconds.
func getms(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
