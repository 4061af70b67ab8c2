package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	MinIO     MinIOConfig
	Promotion PromotionConfig
	Worker    WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string // minioadmin
	SecretKey string // minioadmin
	Bucket    string // novelstore-reports
	UseSSL    bool   // false for local
}

// PromotionConfig - cấu hình promotion engine
type PromotionConfig struct {
	StoreDriver    string // memory | postgres
	SeedDemoData   bool   // chỉ áp dụng cho memory store
	CacheEnabled   bool
	CacheTTL       time.Duration
	RoundingPlaces int // < 0 = không làm tròn
}

// WorkerConfig - cấu hình asynq worker + scheduler
type WorkerConfig struct {
	Concurrency   int
	ReportCron    string
	ReportURLTTL  time.Duration
	ReportsPrefix string
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Novelstore Promotion API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "novelstore"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer: getEnv("JWT_ISSUER", "novelstore"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "novelstore-reports"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Promotion: PromotionConfig{
			StoreDriver:    getEnv("STORE_DRIVER", "memory"),
			SeedDemoData:   getEnvBool("PROMO_SEED_DEMO", true),
			CacheEnabled:   getEnvBool("CACHE_ENABLED", false),
			CacheTTL:       getEnvDuration("PROMO_CACHE_TTL", 5*time.Minute),
			RoundingPlaces: getEnvInt("PROMO_ROUNDING_PLACES", -1),
		},
		Worker: WorkerConfig{
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 5),
			ReportCron:    getEnv("REPORT_CRON", "0 1 * * *"), // 1 AM mỗi ngày
			ReportURLTTL:  getEnvDuration("REPORT_URL_TTL", 24*time.Hour),
			ReportsPrefix: getEnv("REPORT_PREFIX", "reports/coupons"),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	switch c.Promotion.StoreDriver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be 'memory' or 'postgres', got %q", c.Promotion.StoreDriver)
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Promotion.StoreDriver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Promotion.StoreDriver == "memory" {
			log.Warn().Msg("STORE_DRIVER=memory in production - promotion data is lost on restart")
		}
	}

	return nil
}

// RedisAddr trả về host:port cho asynq và go-redis
func (c *Config) RedisAddr() string {
	return c.Redis.Host
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
