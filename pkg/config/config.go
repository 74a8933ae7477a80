package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Model artifacts
	Model ModelConfig

	// Scoring policy YAML (empty = built-in defaults)
	PolicyPath string

	// Database (audit log)
	Database DatabaseConfig
	Audit    AuditConfig

	// Redis
	Redis RedisConfig

	// Inbound request limits
	RateLimit RateLimitConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// ModelConfig holds model backend configuration
type ModelConfig struct {
	Backend        string // file, remote
	Path           string
	ExplainerPath  string
	RemoteURL      string
	RemoteTimeout  time.Duration
	ReloadSchedule string // cron spec, empty = no scheduled reload
}

// AuditConfig controls the optional decision log
type AuditConfig struct {
	Enabled   bool
	Retention time.Duration // 0 = 영구 보관
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration // 점수 결과 캐시 TTL (0 = 캐시 안 함)
}

// RateLimitConfig holds inbound rate limit settings
type RateLimitConfig struct {
	RPS   float64 // 0 = 제한 없음
	Burst int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Model backends
const (
	ModelBackendFile   = "file"
	ModelBackendRemote = "remote"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Model
		Model: ModelConfig{
			Backend:        getEnv("MODEL_BACKEND", ModelBackendFile),
			Path:           getEnv("MODEL_PATH", "models/credit_model.json"),
			ExplainerPath:  getEnv("EXPLAINER_PATH", "models/explainer.json"),
			RemoteURL:      getEnv("MODEL_REMOTE_URL", ""),
			RemoteTimeout:  getEnvAsDuration("MODEL_REMOTE_TIMEOUT", "5s"),
			ReloadSchedule: getEnv("MODEL_RELOAD_SCHEDULE", ""),
		},

		PolicyPath: getEnv("POLICY_PATH", ""),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "sycamore"),
			User:            getEnv("DB_USER", "sycamore"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Audit: AuditConfig{
			Enabled:   getEnvAsBool("AUDIT_ENABLED", false),
			Retention: getEnvAsDuration("AUDIT_RETENTION", "0s"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("CACHE_TTL", "10m"),
		},

		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 50),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 100),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Model.Backend {
	case ModelBackendFile:
	case ModelBackendRemote:
		if c.Model.RemoteURL == "" {
			return fmt.Errorf("MODEL_REMOTE_URL is required when MODEL_BACKEND=remote")
		}
	default:
		return fmt.Errorf("MODEL_BACKEND must be one of: file, remote")
	}

	// Audit log needs a database
	if c.Audit.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when AUDIT_ENABLED=true")
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be >= 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
