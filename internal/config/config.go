package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend drivers for the table API.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendNone     = "none"
)

// Storage drivers for uploaded images.
const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
	StorageLocal    = "local"
	StorageNone     = "none"
)

type Config struct {
	Server     ServerConfig
	Admin      AdminConfig
	Backend    BackendConfig
	Storage    StorageConfig
	Cache      CacheConfig
	SMTP       SMTPConfig
	Typewriter TypewriterConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	StaticDir      string
	// VisitorSalt salts visitor IP hashes; empty means a per-process random salt.
	VisitorSalt string
}

type AdminConfig struct {
	Username   string
	Password   string
	SessionTTL time.Duration
	// UsingDefaults is set when either credential fell back to the development value.
	UsingDefaults bool
}

type BackendConfig struct {
	Driver      string
	SupabaseURL string
	SupabaseKey string
	DatabaseURL string
	SQLitePath  string
}

type StorageConfig struct {
	Driver          string
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
	UploadDir       string
	UploadBaseURL   string
}

type CacheConfig struct {
	RedisURL string
}

type SMTPConfig struct {
	Host    string
	Port    string
	User    string
	Pass    string
	ToEmail string
}

type TypewriterConfig struct {
	TypingInterval  time.Duration
	ErasingInterval time.Duration
	Pause           time.Duration
}

type LogConfig struct {
	Level string
	Dev   bool
}

// Load reads the configuration from the environment. The .env file is
// picked up by godotenv/autoload in main before this runs.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),
			StaticDir:      getEnv("STATIC_DIR", "./web/dist"),
			VisitorSalt:    os.Getenv("VISITOR_HASH_SALT"),
		},
		Admin: AdminConfig{
			Username:   os.Getenv("ADMIN_USERNAME"),
			Password:   os.Getenv("ADMIN_PASSWORD"),
			SessionTTL: time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		},
		Backend: BackendConfig{
			Driver:      strings.ToLower(getEnv("BACKEND", BackendSQLite)),
			SupabaseURL: strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			SupabaseKey: os.Getenv("SUPABASE_ANON_KEY"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getEnv("SQLITE_PATH", "portfolio.db"),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getEnv("STORAGE", StorageLocal)),
			S3Endpoint:      os.Getenv("S3_ENDPOINT"),
			S3Region:        getEnv("S3_REGION", "us-east-1"),
			S3AccessKey:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretKey:     os.Getenv("S3_SECRET_ACCESS_KEY"),
			S3PublicBaseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
			UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
			UploadBaseURL:   strings.TrimRight(getEnv("UPLOAD_BASE_URL", "/uploads"), "/"),
		},
		Cache: CacheConfig{
			RedisURL: os.Getenv("REDIS_URL"),
		},
		SMTP: SMTPConfig{
			Host:    getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:    getEnv("SMTP_PORT", "587"),
			User:    os.Getenv("SMTP_USER"),
			Pass:    os.Getenv("SMTP_PASS"),
			ToEmail: os.Getenv("TO_EMAIL"),
		},
		Typewriter: TypewriterConfig{
			TypingInterval:  getEnvAsMillis("TYPING_SPEED_MS", 100),
			ErasingInterval: getEnvAsMillis("ERASING_SPEED_MS", 50),
			Pause:           getEnvAsMillis("PAUSE_DURATION_MS", 2000),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dev:   getEnvAsBool("LOG_DEV", false),
		},
	}

	// Default credentials for development only
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
		cfg.Admin.UsingDefaults = true
	}
	if cfg.Admin.Password == "" {
		cfg.Admin.Password = "admin123"
		cfg.Admin.UsingDefaults = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Backend.Driver {
	case BackendSupabase:
		// Missing Supabase settings degrade to the disabled backend instead of failing.
	case BackendPostgres:
		if c.Backend.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when BACKEND=postgres")
		}
	case BackendSQLite:
		if c.Backend.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when BACKEND=sqlite")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown BACKEND %q", c.Backend.Driver)
	}

	switch c.Storage.Driver {
	case StorageSupabase, StorageNone:
	case StorageS3:
		if c.Storage.S3PublicBaseURL == "" {
			return fmt.Errorf("S3_PUBLIC_URL is required when STORAGE=s3")
		}
	case StorageLocal:
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required when STORAGE=local")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage.Driver)
	}

	if c.Typewriter.TypingInterval <= 0 || c.Typewriter.ErasingInterval <= 0 || c.Typewriter.Pause < 0 {
		return fmt.Errorf("typewriter timings must be positive")
	}

	return nil
}

// SupabaseConfigured reports whether both the project URL and key are present.
func (c *Config) SupabaseConfigured() bool {
	return c.Backend.SupabaseURL != "" && c.Backend.SupabaseKey != ""
}

// IsProduction reports whether APP_ENV selects production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
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
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
