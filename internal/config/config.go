package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process and the admin CLI.
// All values come from env; a .env file in the working directory is loaded
// first for local runs and never overrides variables already set.
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	Plans PlanConfig
	Audit AuditConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	MaxOpenConns int
	// AutoMigrate applies embedded migrations at API startup.
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// LoginRatePerMinute bounds login attempts per client IP.
	LoginRatePerMinute int
}

// PlanConfig holds the limits a newly registered tenant starts with.
type PlanConfig struct {
	DefaultMaxUsers    int
	DefaultMaxProjects int
}

type AuditConfig struct {
	WriteTimeout time.Duration
	QueueSize    int
}

func Load() (Config, error) {
	var parseErrs []error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		parseErrs = append(parseErrs, fmt.Errorf(".env: %w", err))
	}

	c := Config{}

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port = collect(&parseErrs, mustInt("APP_PORT"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = collect(&parseErrs, mustInt("DB_PORT"))
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.MaxOpenConns = collect(&parseErrs, optionalInt("DB_MAX_OPEN_CONNS"))
	c.DB.AutoMigrate = collect(&parseErrs, optionalBool("DB_AUTO_MIGRATE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port = collect(&parseErrs, mustInt("REDIS_PORT"))
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Optional values; defaults are applied in Validate().
	c.Auth.AccessTokenTTL = collect(&parseErrs, optionalDuration("JWT_ACCESS_TTL"))
	c.Auth.RefreshTokenTTL = collect(&parseErrs, optionalDuration("JWT_REFRESH_TTL"))
	c.Auth.LoginRatePerMinute = collect(&parseErrs, optionalInt("LOGIN_RATE_PER_MINUTE"))

	c.Plans.DefaultMaxUsers = collect(&parseErrs, optionalInt("PLAN_DEFAULT_MAX_USERS"))
	c.Plans.DefaultMaxProjects = collect(&parseErrs, optionalInt("PLAN_DEFAULT_MAX_PROJECTS"))

	c.Audit.WriteTimeout = collect(&parseErrs, optionalDuration("AUDIT_TIMEOUT"))
	c.Audit.QueueSize = collect(&parseErrs, optionalInt("AUDIT_QUEUE_SIZE"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills in defaults for optional ones.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	if c.DB.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_OPEN_CONNS must not be negative, got %d", c.DB.MaxOpenConns))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
		}
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}
	if c.Auth.LoginRatePerMinute <= 0 {
		c.Auth.LoginRatePerMinute = 10
	}

	if c.Plans.DefaultMaxUsers <= 0 {
		c.Plans.DefaultMaxUsers = 5
	}
	if c.Plans.DefaultMaxProjects <= 0 {
		c.Plans.DefaultMaxProjects = 3
	}

	if c.Audit.WriteTimeout <= 0 {
		c.Audit.WriteTimeout = 2 * time.Second
	}
	if c.Audit.QueueSize <= 0 {
		c.Audit.QueueSize = 1024
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

type parsed[T any] struct {
	v   T
	err error
}

func collect[T any](errs *[]error, p parsed[T]) T {
	if p.err != nil {
		*errs = append(*errs, p.err)
	}
	return p.v
}

func mustInt(key string) parsed[int] {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return parsed[int]{err: fmt.Errorf("%s is required", key)}
	}
	return parseInt(key, v)
}

func optionalInt(key string) parsed[int] {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return parsed[int]{}
	}
	return parseInt(key, v)
}

func parseInt(key, v string) parsed[int] {
	n, err := strconv.Atoi(v)
	if err != nil {
		return parsed[int]{err: fmt.Errorf("%s must be an integer, got %q", key, v)}
	}
	return parsed[int]{v: n}
}

func optionalDuration(key string) parsed[time.Duration] {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return parsed[time.Duration]{}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return parsed[time.Duration]{err: fmt.Errorf("%s must be a duration, got %q", key, v)}
	}
	return parsed[time.Duration]{v: d}
}

func optionalBool(key string) parsed[bool] {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return parsed[bool]{}
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return parsed[bool]{err: fmt.Errorf("%s must be a boolean, got %q", key, v)}
	}
	return parsed[bool]{v: b}
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
