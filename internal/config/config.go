package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigFile is read when no path is given. It is optional.
const DefaultConfigFile = "configs/config.yaml"

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret string `mapstructure:"secret"`
		Issuer string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		AlarmTTL time.Duration `mapstructure:"alarm_ttl"`
	} `mapstructure:"redis"`

	Alarms struct {
		Timezone     string        `mapstructure:"timezone"`
		FastPath     bool          `mapstructure:"fast_path"`
		Workers      int           `mapstructure:"workers"`
		FeedInterval time.Duration `mapstructure:"feed_interval"`
	} `mapstructure:"alarms"`

	Reports struct {
		Enabled   bool   `mapstructure:"enabled"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"reports"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var (
	ErrInvalidPort      = errors.New("config: port must be between 1 and 65535")
	ErrMissingJWTSecret = errors.New("config: jwt secret is required")
	ErrMissingBucket    = errors.New("config: reports bucket is required when reports are enabled")
	ErrInvalidWorkers   = errors.New("config: alarm workers must be positive")
)

// Load reads the YAML file at path (optional), applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigFile
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "repair_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("jwt.issuer", "repair-backend")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.alarm_ttl", time.Minute)
	v.SetDefault("alarms.timezone", "Europe/Copenhagen")
	v.SetDefault("alarms.fast_path", true)
	v.SetDefault("alarms.workers", 8)
	v.SetDefault("alarms.feed_interval", 30*time.Second)
	v.SetDefault("reports.region", "auto")
	v.SetDefault("log.level", "info")
}

// applyEnv lets the deployment override secrets and endpoints with plain env vars.
func applyEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
	if key := os.Getenv("REPORTS_ACCESS_KEY"); key != "" {
		cfg.Reports.AccessKey = key
	}
	if secret := os.Getenv("REPORTS_SECRET_KEY"); secret != "" {
		cfg.Reports.SecretKey = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// Validate checks required settings and fills in zero-valued defaults.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if cfg.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if cfg.Alarms.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if cfg.Alarms.FeedInterval <= 0 {
		cfg.Alarms.FeedInterval = 30 * time.Second
	}
	if cfg.Redis.AlarmTTL <= 0 {
		cfg.Redis.AlarmTTL = time.Minute
	}
	if cfg.Reports.Enabled && cfg.Reports.Bucket == "" {
		return ErrMissingBucket
	}
	if _, err := time.LoadLocation(cfg.Alarms.Timezone); err != nil {
		return fmt.Errorf("config: alarms timezone: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
