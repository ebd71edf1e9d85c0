package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	BackendBaseURL string
	BackendTimeout time.Duration

	AuthCookieName string
	CookieSecure   bool
	CookieDomain   string
	JWTSecret      string

	PostgresURL string

	FlowTTL       time.Duration
	TestsCacheTTL time.Duration

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	// DotEnvLoaded reports whether Load found a .env file.
	DotEnvLoaded bool
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.DotEnvLoaded = loaded
	return cfg, nil
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnvWithDefault("APP_ENV", "production"),
		Port:           getEnvWithDefault("PORT", "8080"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		BackendBaseURL: strings.TrimRight(os.Getenv("BACKEND_BASE_URL"), "/"),
		AuthCookieName: getEnvWithDefault("AUTH_COOKIE_NAME", "token"),
		CookieDomain:   os.Getenv("COOKIE_DOMAIN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		CORSOrigins:    splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}

	var err error
	if cfg.BackendTimeout, err = durationEnv("BACKEND_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.FlowTTL, err = durationEnv("FLOW_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TestsCacheTTL, err = durationEnv("TESTS_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = boolEnv("COOKIE_SECURE", cfg.AppEnv != "development"); err != nil {
		return nil, err
	}

	rps := getEnvWithDefault("RATE_LIMIT_RPS", "10")
	if cfg.RateLimitRPS, err = strconv.ParseFloat(rps, 64); err != nil || cfg.RateLimitRPS <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", rps)
	}
	burst := getEnvWithDefault("RATE_LIMIT_BURST", "20")
	if cfg.RateLimitBurst, err = strconv.Atoi(burst); err != nil || cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q", burst)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// getEnvWithDefault returns environment variable or default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return b, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
