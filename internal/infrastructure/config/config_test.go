package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.JWT.ExpiresIn != 168*time.Hour {
		t.Errorf("jwt expiry = %s", cfg.JWT.ExpiresIn)
	}
	if cfg.Redis.Enabled || cfg.Redis.Channel != "tasksync:events" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Scheduler.ActivityRetention != 90*24*time.Hour || cfg.Scheduler.DeadlineSweepInterval != time.Minute {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Realtime.SendBuffer != 64 {
		t.Errorf("send buffer = %d", cfg.Realtime.SendBuffer)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("UPLOAD_DIR", "/var/lib/tasksync")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Server.Port != 9090 || !cfg.Redis.Enabled || cfg.Storage.UploadDir != "/var/lib/tasksync" {
		t.Errorf("env not applied: port=%d redis=%v dir=%s", cfg.Server.Port, cfg.Redis.Enabled, cfg.Storage.UploadDir)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT secret"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT secret"},
		{"bad port", map[string]string{"JWT_SECRET": "0123456789abcdef0123", "SERVER_PORT": "70000"}, "server port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestDatabaseURLs(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "tasksync", SSLMode: "disable"}

	if got, want := db.GetDSN(), "host=db port=5432 user=app password=pw dbname=tasksync sslmode=disable"; got != want {
		t.Errorf("GetDSN() = %q", got)
	}
	if got, want := db.GetURL(), "postgres://app:pw@db:5432/tasksync?sslmode=disable"; got != want {
		t.Errorf("GetURL() = %q", got)
	}
}
