package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Engine       EngineConfig
	Platform     PlatformConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// PlatformConfig points at the internal platform API serving profile
// completeness and catalog lookups.
type PlatformConfig struct {
	BaseURL string
	APIKey  string
}

type NotificationConfig struct {
	BaseURL string
	APIKey  string
}

// EngineConfig holds the personalization engine tunables.
type EngineConfig struct {
	ActivityRetentionDays int
	TrendingWindowDays    int
	ConversionWindowDays  int

	ComputeTimeout time.Duration

	// Per-kind cache TTL tiers. Mentor availability moves faster than
	// opportunity listings, so its tier is shorter.
	OpportunityCacheTTL time.Duration
	ContentCacheTTL     time.Duration
	MentorCacheTTL      time.Duration
	CacheEntriesPerKind int

	ActivityPoolWorkers  int
	ActivityPoolQueue    int
	RecomputePoolWorkers int
	RecomputePoolQueue   int
	ReactorPoolWorkers   int
	ReactorPoolQueue     int
	NotifyPoolWorkers    int
	NotifyPoolQueue      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Opportunity Hub Personalization API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "opportunity_hub"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_API_URL", ""),
			APIKey:  getEnv("PLATFORM_API_KEY", ""),
		},
		Notification: NotificationConfig{
			BaseURL: getEnv("NOTIFICATION_API_URL", ""),
			APIKey:  getEnv("NOTIFICATION_API_KEY", ""),
		},
		Engine: EngineConfig{
			ActivityRetentionDays: getEnvInt("ACTIVITY_RETENTION_DAYS", 120),
			TrendingWindowDays:    getEnvInt("TRENDING_WINDOW_DAYS", 30),
			ConversionWindowDays:  getEnvInt("CONVERSION_WINDOW_DAYS", 90),

			ComputeTimeout: getEnvDuration("RECO_COMPUTE_TIMEOUT", 2*time.Second),

			OpportunityCacheTTL: getEnvDuration("RECO_OPPORTUNITY_CACHE_TTL", 15*time.Minute),
			ContentCacheTTL:     getEnvDuration("RECO_CONTENT_CACHE_TTL", 30*time.Minute),
			MentorCacheTTL:      getEnvDuration("RECO_MENTOR_CACHE_TTL", 5*time.Minute),
			CacheEntriesPerKind: getEnvInt("RECO_CACHE_ENTRIES_PER_KIND", 10000),

			ActivityPoolWorkers:  getEnvInt("ACTIVITY_POOL_WORKERS", 4),
			ActivityPoolQueue:    getEnvInt("ACTIVITY_POOL_QUEUE", 1024),
			RecomputePoolWorkers: getEnvInt("RECOMPUTE_POOL_WORKERS", 2),
			RecomputePoolQueue:   getEnvInt("RECOMPUTE_POOL_QUEUE", 256),
			ReactorPoolWorkers:   getEnvInt("REACTOR_POOL_WORKERS", 2),
			ReactorPoolQueue:     getEnvInt("REACTOR_POOL_QUEUE", 1024),
			NotifyPoolWorkers:    getEnvInt("NOTIFY_POOL_WORKERS", 1),
			NotifyPoolQueue:      getEnvInt("NOTIFY_POOL_QUEUE", 64),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Engine.ActivityRetentionDays < 1 {
		return nil, errors.New("activity retention must be at least one day")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return defaultVal
}
