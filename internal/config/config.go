package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPPort    string
	CORSOrigins string

	DBDriver    string // sqlite | postgres
	DBPath      string // sqlite file
	DatabaseDSN string // postgres

	JWTSecret    string
	JWTExpiresIn time.Duration

	LogLevel string
	LogFile  string

	BackupDir        string
	BackupSchedule   string
	MaxBackups       int
	LowStockSchedule string
	OverdueSchedule  string

	RedisAddr string
	CacheTTL  time.Duration

	AdminUsername string
	AdminPassword string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if it exists; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "./data/asset.db")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("BACKUP_DIR", "./backups")
	v.SetDefault("BACKUP_SCHEDULE", "0 3 * * *")
	v.SetDefault("MAX_BACKUPS", 10)
	v.SetDefault("LOW_STOCK_SCHEDULE", "0 9 * * *")
	v.SetDefault("OVERDUE_SCHEDULE", "0 * * * *")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", "60s")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")

	cfg := &Config{
		HTTPPort:         v.GetString("HTTP_PORT"),
		CORSOrigins:      v.GetString("CORS_ALLOWED_ORIGINS"),
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:           v.GetString("DB_PATH"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTExpiresIn:     v.GetDuration("JWT_EXPIRES_IN"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFile:          v.GetString("LOG_FILE"),
		BackupDir:        v.GetString("BACKUP_DIR"),
		BackupSchedule:   v.GetString("BACKUP_SCHEDULE"),
		MaxBackups:       v.GetInt("MAX_BACKUPS"),
		LowStockSchedule: v.GetString("LOW_STOCK_SCHEDULE"),
		OverdueSchedule:  v.GetString("OVERDUE_SCHEDULE"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTExpiresIn <= 0 {
		c.JWTExpiresIn = 24 * time.Hour
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 10
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
	return nil
}
