package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const minPasswordLength = 6

// Upload backends.
const (
	UploadBackendMinio = "minio"
	UploadBackendLocal = "local"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Minio    MinioConfig    `mapstructure:"minio"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	JWKSURL         string        `mapstructure:"jwks_url"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type MinioConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	Bucket     string        `mapstructure:"bucket"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type UploadConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	MaxSize int64  `mapstructure:"max_size"`
}

type JobsConfig struct {
	SummaryInterval time.Duration `mapstructure:"summary_interval"`
	ExpireOverdue   bool          `mapstructure:"expire_overdue"`
	ExpireAfterDays int           `mapstructure:"expire_after_days"`
}

// AdminConfig seeds the first administrator on start when Email is set.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads .env (if any), an optional config file and the environment.
// Environment variables win over the file.
func Load(configPath string) (*Config, error) {
	// .env is optional, a missing file is not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.max_conns", 10)

	v.SetDefault("auth.access_token_ttl", 24*time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 5*time.Minute)

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "legalizaciones")
	v.SetDefault("minio.presign_ttl", 15*time.Minute)

	v.SetDefault("upload.backend", UploadBackendMinio)
	v.SetDefault("upload.dir", "public/uploads")
	v.SetDefault("upload.max_size", 20<<20)

	v.SetDefault("jobs.summary_interval", 5*time.Minute)
	v.SetDefault("jobs.expire_overdue", false)
	v.SetDefault("jobs.expire_after_days", 30)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("admin.name", "Administrador")
}

// bindEnvVars maps the flat environment names used by deployments.
func bindEnvVars(v *viper.Viper) {
	bindings := map[string]string{
		"server.port":            "PORT",
		"database.url":           "DATABASE_URL",
		"auth.jwt_secret":        "JWT_SECRET",
		"auth.jwks_url":          "JWKS_URL",
		"redis.addr":             "REDIS_ADDR",
		"redis.password":         "REDIS_PASSWORD",
		"redis.db":               "REDIS_DB",
		"minio.endpoint":         "MINIO_ENDPOINT",
		"minio.access_key":       "MINIO_ACCESS_KEY",
		"minio.secret_key":       "MINIO_SECRET_KEY",
		"minio.use_ssl":          "MINIO_USE_SSL",
		"minio.bucket":           "MINIO_BUCKET",
		"upload.backend":         "UPLOAD_BACKEND",
		"upload.dir":             "UPLOAD_DIR",
		"jobs.expire_overdue":    "JOBS_EXPIRE_OVERDUE",
		"jobs.expire_after_days": "JOBS_EXPIRE_AFTER_DAYS",
		"logger.level":           "LOG_LEVEL",
		"logger.format":          "LOG_FORMAT",
		"admin.email":            "ADMIN_EMAIL",
		"admin.password":         "ADMIN_PASSWORD",
		"admin.name":             "ADMIN_NAME",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Database.URL == "" {
		result = multierror.Append(result, errors.New("DATABASE_URL is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	switch c.Upload.Backend {
	case UploadBackendMinio:
		if c.Minio.Bucket == "" {
			result = multierror.Append(result, errors.New("MINIO_BUCKET is required for the minio upload backend"))
		}
	case UploadBackendLocal:
		if c.Upload.Dir == "" {
			result = multierror.Append(result, errors.New("UPLOAD_DIR is required for the local upload backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown upload backend %q", c.Upload.Backend))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		result = multierror.Append(result, errors.New("access token ttl must be positive"))
	}
	if c.Jobs.ExpireOverdue && c.Jobs.ExpireAfterDays <= 0 {
		result = multierror.Append(result, errors.New("expire_after_days must be positive when overdue expiry is enabled"))
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < minPasswordLength {
		result = multierror.Append(result, fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", minPasswordLength))
	}

	return result.ErrorOrNil()
}
