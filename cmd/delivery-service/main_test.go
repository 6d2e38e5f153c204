package main

import (
	"os"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/app"
)

func TestReadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"DELIVERY_HTTP_ADDR",
		"DELIVERY_STORAGE_DRIVER",
		"DELIVERY_OUTBOX_POLL_INTERVAL",
		"KAFKA_BROKERS",
	} {
		unsetEnv(t, key)
	}

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defaults := app.DefaultConfig()
	if cfg.HTTPAddr != defaults.HTTPAddr {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.StorageDriver != app.StorageDriverMemory {
		t.Fatalf("unexpected storage driver: %s", cfg.StorageDriver)
	}
}

func TestReadConfig_Overrides(t *testing.T) {
	t.Setenv("DELIVERY_HTTP_ADDR", "127.0.0.1:18080")
	t.Setenv("DELIVERY_OUTBOX_POLL_INTERVAL", "250ms")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:18080" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.OutboxPollInterval != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.OutboxPollInterval)
	}
}

func TestReadConfig_Invalid(t *testing.T) {
	t.Setenv("DELIVERY_OUTBOX_POLL_INTERVAL", "soon")

	if _, err := readConfig(); err == nil {
		t.Fatal("expected error for invalid poll interval")
	}
}

// unsetEnv убирает переменную на время теста.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
}
