package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret         string
	AccessTTL            time.Duration
	AdminEmailDomain     string
	StaffDefaultPassword string
	LoginRateLimit       int
	LoginRateWindow      time.Duration
}

type FirebaseConfig struct {
	Enabled         bool
	ProjectID       string
	CredentialsFile string
}

const (
	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"
)

type StorageConfig struct {
	Driver        string
	LocalDir      string
	PublicBaseURL string
	GCSBucket     string
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	IssueDailyLimit int
}

type OutboxConfig struct {
	RelaySpec   string
	MaxAttempts int
	BatchSize   int
}

type Config struct {
	Environment string
	SeedStaff   bool
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Firebase    FirebaseConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
}

func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()
	setDefaults(v)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		SeedStaff:   v.GetBool("SEED_STAFF"),
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:         v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:            v.GetDuration("JWT_ACCESS_TTL"),
			AdminEmailDomain:     strings.ToLower(v.GetString("ADMIN_EMAIL_DOMAIN")),
			StaffDefaultPassword: v.GetString("STAFF_DEFAULT_PASSWORD"),
			LoginRateLimit:       v.GetInt("LOGIN_RATE_LIMIT"),
			LoginRateWindow:      v.GetDuration("LOGIN_RATE_WINDOW"),
		},
		Firebase: FirebaseConfig{
			Enabled:         v.GetBool("FIREBASE_ENABLED"),
			ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
			CredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			LocalDir:      v.GetString("STORAGE_LOCAL_DIR"),
			PublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			GCSBucket:     v.GetString("GCS_BUCKET"),
		},
		Redis: RedisConfig{
			Addr:            v.GetString("REDIS_ADDR"),
			Password:        v.GetString("REDIS_PASSWORD"),
			DB:              v.GetInt("REDIS_DB"),
			IssueDailyLimit: v.GetInt("ISSUE_DAILY_LIMIT"),
		},
		Outbox: OutboxConfig{
			RelaySpec:   v.GetString("OUTBOX_RELAY_SPEC"),
			MaxAttempts: v.GetInt("OUTBOX_MAX_ATTEMPTS"),
			BatchSize:   v.GetInt("OUTBOX_BATCH"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SEED_STAFF", true)
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("JWT_ACCESS_TTL", 24*time.Hour)
	v.SetDefault("ADMIN_EMAIL_DOMAIN", "@au.edu")
	v.SetDefault("STAFF_DEFAULT_PASSWORD", "OMstaff123")
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", time.Minute)
	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./uploads")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/media")
	v.SetDefault("ISSUE_DAILY_LIMIT", 20)
	v.SetDefault("OUTBOX_RELAY_SPEC", "@every 1m")
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)
	v.SetDefault("OUTBOX_BATCH", 50)
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if !strings.HasPrefix(cfg.Auth.AdminEmailDomain, "@") {
		return fmt.Errorf("ADMIN_EMAIL_DOMAIN must start with @")
	}
	switch cfg.Storage.Driver {
	case StorageDriverLocal:
		if cfg.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR is required for local storage")
		}
	case StorageDriverGCS:
		if cfg.Storage.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for gcs storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Firebase.Enabled && cfg.Firebase.CredentialsFile == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required when FIREBASE_ENABLED is set")
	}
	return nil
}
