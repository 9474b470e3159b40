package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/tanvo/fraudgate/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.AllowThreshold != 0.3 || cfg.BlockThreshold != 0.8 {
		t.Fatalf("expected default thresholds 0.3/0.8, got %v/%v", cfg.AllowThreshold, cfg.BlockThreshold)
	}

	if cfg.OutboxInterval != 300*time.Millisecond {
		t.Fatalf("expected default outbox interval 300ms, got %s", cfg.OutboxInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("AMQP_URL", "amqp://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("ALLOW_THRESHOLD", "0.2")
	t.Setenv("BLOCK_THRESHOLD", "0.9")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.AMQPURL != "amqp://example" {
		t.Fatalf("expected custom AMQP URL, got %s", cfg.AMQPURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.AllowThreshold != 0.2 || cfg.BlockThreshold != 0.9 {
		t.Fatalf("expected threshold overrides, got %v/%v", cfg.AllowThreshold, cfg.BlockThreshold)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name    string
		allow   string
		block   string
		wantErr bool
	}{
		{name: "ordered pair", allow: "0.3", block: "0.8", wantErr: false},
		{name: "equal pair collapses review band", allow: "0.5", block: "0.5", wantErr: false},
		{name: "inverted pair", allow: "0.8", block: "0.3", wantErr: true},
		{name: "allow above one", allow: "1.5", block: "0.8", wantErr: true},
		{name: "negative block", allow: "0.3", block: "-0.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ALLOW_THRESHOLD", tt.allow)
			t.Setenv("BLOCK_THRESHOLD", tt.block)

			_, err := config.Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
