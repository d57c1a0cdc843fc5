package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)
}

func TestLoad_LockoutDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts: got %d, want 5", cfg.Auth.MaxFailedAttempts)
	}
	if cfg.Auth.LockoutWindow != 30*time.Minute {
		t.Errorf("LockoutWindow: got %v, want 30m", cfg.Auth.LockoutWindow)
	}
}

func TestLoad_LockoutCustomValues(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("AUTH_MAX_FAILED_ATTEMPTS", "3")
	os.Setenv("AUTH_LOCKOUT_WINDOW", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MaxFailedAttempts != 3 {
		t.Errorf("MaxFailedAttempts: got %d, want 3", cfg.Auth.MaxFailedAttempts)
	}
	if cfg.Auth.LockoutWindow != time.Hour {
		t.Errorf("LockoutWindow: got %v, want 1h", cfg.Auth.LockoutWindow)
	}
}

func TestLoad_RejectsZeroFailedAttempts(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("AUTH_MAX_FAILED_ATTEMPTS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() = nil, want error for zero max failed attempts")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_WeakJWTSecretInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	t.Cleanup(os.Clearenv)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() = nil, want error for weak secret in production")
	}
}

func TestLoad_ServerTimeoutDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestLoad_RetentionDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Retention.ActivityRetentionDays != 365 {
		t.Errorf("ActivityRetentionDays: got %d, want 365", cfg.Retention.ActivityRetentionDays)
	}
	if cfg.Retention.CleanupInterval != time.Hour {
		t.Errorf("CleanupInterval: got %v, want 1h", cfg.Retention.CleanupInterval)
	}
}
