package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string
	CORSOrigins []string
	LogLevel    string

	// Auth
	JWTSecret         string
	AdminEmailPattern string

	// Database
	StoreDriver    string
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Queue
	QueueDriver          string
	RedisHost            string
	RedisPort            int
	RedisPassword        string
	RedisDB              int
	QueuePrefix          string
	QueueAttempts        int
	QueueBackoff         time.Duration
	QueueKeepCompleted   int64
	QueueKeepFailed      int64
	QueueCompletedMaxAge time.Duration
	QueueFailedMaxAge    time.Duration
	QueuePruneInterval   time.Duration
	QueuePollInterval    time.Duration
	ImageJobPriority     int

	// Worker
	WorkerConcurrency int
	ImageJobTimeout   time.Duration
	ImageSize         int
	ImageQuality      int

	// Uploads
	MaxUploadMB       int64
	AllowedImageTypes []string
	TempDir           string
	PublicDir         string

	// Image storage
	ImageStorage          string
	SupabaseURL           string
	SupabaseKey           string
	SupabaseStorageBucket string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ADMIN_EMAIL_PATTERN", `^admin[.+@]`)
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("QUEUE_DRIVER", "redis")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("QUEUE_PREFIX", "imgq")
	v.SetDefault("QUEUE_ATTEMPTS", 3)
	v.SetDefault("QUEUE_BACKOFF", "2s")
	v.SetDefault("QUEUE_KEEP_COMPLETED", 100)
	v.SetDefault("QUEUE_KEEP_FAILED", 50)
	v.SetDefault("QUEUE_COMPLETED_MAX_AGE", "24h")
	v.SetDefault("QUEUE_FAILED_MAX_AGE", "168h")
	v.SetDefault("QUEUE_PRUNE_INTERVAL", "1h")
	v.SetDefault("QUEUE_POLL_INTERVAL", "500ms")
	v.SetDefault("IMAGE_JOB_PRIORITY", 1)
	v.SetDefault("WORKER_CONCURRENCY", 2)
	v.SetDefault("IMAGE_JOB_TIMEOUT", "60s")
	v.SetDefault("IMAGE_SIZE", 400)
	v.SetDefault("IMAGE_QUALITY", 85)
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("ALLOWED_IMAGE_TYPES", "image/jpeg,image/png,image/gif,image/webp")
	v.SetDefault("TEMP_DIR", "./tmp/uploads")
	v.SetDefault("PUBLIC_DIR", "./public")
	v.SetDefault("IMAGE_STORAGE", "local")
	v.SetDefault("SUPABASE_STORAGE_BUCKET", "nominee-images")
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		BaseURL:     v.GetString("BASE_URL"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:    v.GetString("LOG_LEVEL"),

		JWTSecret:         v.GetString("JWT_SECRET"),
		AdminEmailPattern: v.GetString("ADMIN_EMAIL_PATTERN"),

		StoreDriver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		QueueDriver:          strings.ToLower(v.GetString("QUEUE_DRIVER")),
		RedisHost:            v.GetString("REDIS_HOST"),
		RedisPort:            v.GetInt("REDIS_PORT"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		QueuePrefix:          v.GetString("QUEUE_PREFIX"),
		QueueAttempts:        v.GetInt("QUEUE_ATTEMPTS"),
		QueueBackoff:         v.GetDuration("QUEUE_BACKOFF"),
		QueueKeepCompleted:   v.GetInt64("QUEUE_KEEP_COMPLETED"),
		QueueKeepFailed:      v.GetInt64("QUEUE_KEEP_FAILED"),
		QueueCompletedMaxAge: v.GetDuration("QUEUE_COMPLETED_MAX_AGE"),
		QueueFailedMaxAge:    v.GetDuration("QUEUE_FAILED_MAX_AGE"),
		QueuePruneInterval:   v.GetDuration("QUEUE_PRUNE_INTERVAL"),
		QueuePollInterval:    v.GetDuration("QUEUE_POLL_INTERVAL"),
		ImageJobPriority:     v.GetInt("IMAGE_JOB_PRIORITY"),

		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		ImageJobTimeout:   v.GetDuration("IMAGE_JOB_TIMEOUT"),
		ImageSize:         v.GetInt("IMAGE_SIZE"),
		ImageQuality:      v.GetInt("IMAGE_QUALITY"),

		MaxUploadMB:       v.GetInt64("MAX_UPLOAD_MB"),
		AllowedImageTypes: splitList(v.GetString("ALLOWED_IMAGE_TYPES")),
		TempDir:           v.GetString("TEMP_DIR"),
		PublicDir:         v.GetString("PUBLIC_DIR"),

		ImageStorage:          strings.ToLower(v.GetString("IMAGE_STORAGE")),
		SupabaseURL:           v.GetString("SUPABASE_URL"),
		SupabaseKey:           v.GetString("SUPABASE_KEY"),
		SupabaseStorageBucket: v.GetString("SUPABASE_STORAGE_BUCKET"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := regexp.Compile(c.AdminEmailPattern); err != nil {
		return fmt.Errorf("ADMIN_EMAIL_PATTERN is not a valid regular expression: %w", err)
	}

	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.QueueDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q", c.QueueDriver)
	}
	if c.QueueAttempts < 1 {
		return fmt.Errorf("QUEUE_ATTEMPTS must be at least 1")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.ImageSize < 1 {
		return fmt.Errorf("IMAGE_SIZE must be positive")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	switch c.ImageStorage {
	case "local":
	case "supabase":
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when IMAGE_STORAGE=supabase")
		}
		if c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_KEY is required when IMAGE_STORAGE=supabase")
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORAGE %q", c.ImageStorage)
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
