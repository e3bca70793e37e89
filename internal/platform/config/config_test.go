package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"API_PORT", "DB_DRIVER", "DB_PATH", "AUTH_TOKEN_HEADER", "CORS_ORIGINS", "REDIS_ADDR", "JWT_EXPIRATION_HOURS", "LOGIN_MAX_FAILURES", "LOGIN_LOCKOUT_SECONDS"} {
		t.Setenv(key, "")
	}
	// Unparsable numbers fall back; strings keep the empty value.
	cfg := FromEnv()
	if cfg.JWTExp != 72*time.Hour {
		t.Fatalf("JWTExp = %s, want 72h", cfg.JWTExp)
	}
	if cfg.LoginMaxFailures != 5 || cfg.LoginLockout != 300*time.Second {
		t.Fatalf("login throttle defaults = %d/%s", cfg.LoginMaxFailures, cfg.LoginLockout)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("CORSOrigins = %v, want empty list for empty value", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "quiz")
	t.Setenv("AUTH_TOKEN_HEADER", "X-Token")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOGIN_LOCKOUT_SECONDS", "60")

	cfg := FromEnv()
	if cfg.APIPort != "9090" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if !strings.Contains(cfg.DBConnStr, "host=db") || !strings.Contains(cfg.DBConnStr, "dbname=quiz") {
		t.Fatalf("unexpected postgres conn string %q", cfg.DBConnStr)
	}
	if cfg.AuthTokenHeader != "X-Token" {
		t.Fatalf("AuthTokenHeader = %q", cfg.AuthTokenHeader)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	if cfg.LoginLockout != time.Minute {
		t.Fatalf("LoginLockout = %s, want 1m", cfg.LoginLockout)
	}
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/q.db")
	cfg := FromEnv()
	if !strings.HasPrefix(cfg.DBConnStr, "file:/tmp/q.db?") {
		t.Fatalf("DBConnStr = %q", cfg.DBConnStr)
	}
	if !strings.Contains(cfg.DBConnStr, "foreign_keys(1)") {
		t.Fatalf("foreign keys not enabled in %q", cfg.DBConnStr)
	}
}
