// Package config loads service settings from .env and the environment.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Argon2   Argon2Config
	Upload   UploadConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Name        string
	Service     string
	Environment string
	LogLevel    string
}

// IsDevelopment reports whether the service runs in a local development environment.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
	ResetOnStart    bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	SecretKey string
	Expiry    time.Duration
}

type Argon2Config struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength int
}

// UploadConfig controls where attachments are stored and which files are accepted.
type UploadConfig struct {
	Dir                 string
	MaxSizeMB           int64
	AllowedContentTypes []string
	BlockedContentTypes []string
	AllowedExtensions   []string
	BlockedExtensions   []string
}

// MaxBytes is the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxSizeMB * 1024 * 1024
}

type AuthConfig struct {
	MaxLoginAttempts int
	LockoutWindow    time.Duration
}

var envBindings = map[string]string{
	"app.name":        "APP_NAME",
	"app.service":     "SERVICE_NAME",
	"app.environment": "ENVIRONMENT",
	"app.log_level":   "LOG_LEVEL",

	"server.port":            "PORT",
	"server.read_timeout":    "SERVER_READ_TIMEOUT",
	"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":    "SERVER_IDLE_TIMEOUT",
	"server.request_timeout": "SERVER_REQUEST_TIMEOUT",
	"server.allowed_origins": "CORS_ALLOWED_ORIGINS",

	"database.host":              "DATABASE_HOST",
	"database.port":              "DATABASE_PORT",
	"database.user":              "DATABASE_USER",
	"database.password":          "DATABASE_PASSWORD",
	"database.name":              "DATABASE_NAME",
	"database.ssl_mode":          "DATABASE_SSL_MODE",
	"database.max_open_conns":    "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DATABASE_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DATABASE_CONN_MAX_LIFETIME",
	"database.migrate_on_start":  "DATABASE_MIGRATE_ON_START",
	"database.reset_on_start":    "RESET_DB_ON_START",

	"redis.enabled":  "REDIS_ENABLED",
	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key":     "JWT_SECRET_KEY",
	"jwt.expiry_minutes": "JWT_EXPIRY_MINUTES",

	"argon2.time":        "ARGON2_TIME",
	"argon2.memory":      "ARGON2_MEMORY",
	"argon2.threads":     "ARGON2_THREADS",
	"argon2.key_length":  "ARGON2_KEY_LENGTH",
	"argon2.salt_length": "ARGON2_SALT_LENGTH",

	"upload.dir":                   "UPLOAD_DIR",
	"upload.max_size_mb":           "UPLOAD_MAX_SIZE_MB",
	"upload.allowed_content_types": "UPLOAD_ALLOWED_CONTENT_TYPES",
	"upload.blocked_content_types": "UPLOAD_BLOCKED_CONTENT_TYPES",
	"upload.allowed_extensions":    "UPLOAD_ALLOWED_EXTENSIONS",
	"upload.blocked_extensions":    "UPLOAD_BLOCKED_EXTENSIONS",

	"auth.max_login_attempts": "AUTH_MAX_LOGIN_ATTEMPTS",
	"auth.lockout_window":     "AUTH_LOCKOUT_WINDOW",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pocketledger")
	v.SetDefault("app.service", "api")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", "https://*,http://*")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "pocketledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrate_on_start", true)
	v.SetDefault("database.reset_on_start", false)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.expiry_minutes", 60)

	v.SetDefault("argon2.time", 1)
	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.threads", 4)
	v.SetDefault("argon2.key_length", 32)
	v.SetDefault("argon2.salt_length", 16)

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("upload.allowed_content_types", "application/pdf")
	v.SetDefault("upload.blocked_content_types", "image/svg+xml")
	v.SetDefault("upload.allowed_extensions", ".png,.jpg,.jpeg,.gif,.webp,.bmp,.tif,.tiff,.pdf")
	v.SetDefault("upload.blocked_extensions", ".svg,.svgz")

	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_window", 15*time.Minute)
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// A missing .env is fine; the environment and defaults still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
		// .env entries are flat (DATABASE_HOST=...); lift them onto the dotted key.
		if v.InConfig(env) {
			v.SetDefault(key, v.Get(env))
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Service:     v.GetString("app.service"),
			Environment: v.GetString("app.environment"),
			LogLevel:    v.GetString("app.log_level"),
		},
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
			IdleTimeout:    v.GetDuration("server.idle_timeout"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			AllowedOrigins: splitCSV(v.GetString("server.allowed_origins")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
			ResetOnStart:    v.GetBool("database.reset_on_start"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
			Expiry:    time.Duration(v.GetInt("jwt.expiry_minutes")) * time.Minute,
		},
		Argon2: Argon2Config{
			Time:       v.GetUint32("argon2.time"),
			Memory:     v.GetUint32("argon2.memory"),
			Threads:    uint8(v.GetUint("argon2.threads")),
			KeyLength:  v.GetUint32("argon2.key_length"),
			SaltLength: v.GetInt("argon2.salt_length"),
		},
		Upload: UploadConfig{
			Dir:                 v.GetString("upload.dir"),
			MaxSizeMB:           v.GetInt64("upload.max_size_mb"),
			AllowedContentTypes: splitCSV(v.GetString("upload.allowed_content_types")),
			BlockedContentTypes: splitCSV(v.GetString("upload.blocked_content_types")),
			AllowedExtensions:   splitCSV(v.GetString("upload.allowed_extensions")),
			BlockedExtensions:   splitCSV(v.GetString("upload.blocked_extensions")),
		},
		Auth: AuthConfig{
			MaxLoginAttempts: v.GetInt("auth.max_login_attempts"),
			LockoutWindow:    v.GetDuration("auth.lockout_window"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		if !c.App.IsDevelopment() {
			return errors.New("JWT_SECRET_KEY is required outside development")
		}
		c.JWT.SecretKey = "dev-secret-change-me"
	}
	if c.Database.ResetOnStart && c.App.Environment == "production" {
		return errors.New("RESET_DB_ON_START is not allowed in production")
	}
	if c.Upload.MaxSizeMB <= 0 {
		return errors.New("UPLOAD_MAX_SIZE_MB must be positive")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("JWT_EXPIRY_MINUTES must be positive")
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
