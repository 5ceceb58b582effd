package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(env string) Config {
	return Config{
		App:   AppConfig{Env: env, Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "workspace"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"APP_ENV", "DB_HOST", "REDIS_HOST", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}

func TestValidate_ProductionRequiresSSLModeAndStrongSecret(t *testing.T) {
	c := validConfig("production")
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
	if !strings.Contains(err.Error(), "DB_SSLMODE") || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig("local")
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.AccessTokenTTL != 24*time.Hour || c.Auth.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("unexpected token ttl defaults: %v / %v", c.Auth.AccessTokenTTL, c.Auth.RefreshTokenTTL)
	}
	if c.Plans.DefaultMaxUsers != 5 || c.Plans.DefaultMaxProjects != 3 {
		t.Fatalf("unexpected plan defaults: %+v", c.Plans)
	}
	if c.Auth.LoginRatePerMinute != 10 || c.Audit.WriteTimeout != 2*time.Second || c.Audit.QueueSize != 1024 {
		t.Fatalf("unexpected defaults: %+v %+v", c.Auth, c.Audit)
	}
}

func TestValidate_RefreshMustOutliveAccess(t *testing.T) {
	c := validConfig("dev")
	c.Auth.AccessTokenTTL = time.Hour
	c.Auth.RefreshTokenTTL = time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected ttl ordering error")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "n")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("PLAN_DEFAULT_MAX_USERS", "12")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":9000" || c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected addrs: %s %s", c.HTTPAddr(), c.RedisAddr())
	}
	if !c.DB.AutoMigrate || c.Auth.AccessTokenTTL != time.Hour || c.Plans.DefaultMaxUsers != 12 {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("JWT_ACCESS_TTL", "soon")
	_, err := Load()
	if err == nil {
		t.Fatalf("expected parse errors")
	}
	if !strings.Contains(err.Error(), "APP_PORT") || !strings.Contains(err.Error(), "JWT_ACCESS_TTL") {
		t.Fatalf("unexpected error: %v", err)
	}
}
