package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv регистрирует восстановление, Unsetenv убирает переменную из окружения.
	for _, key := range []string{"HTTP_ADDR", "METRICS_ADDR", "POSTGRES_DSN", "KAFKA_BROKERS", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Fatalf("expected default metrics addr, got %s", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %s", cfg.LogLevel)
	}
	if cfg.PostgresDSN != "" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected empty optional settings, got %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/oims")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("expected override, got %s", cfg.HTTPAddr)
	}
	if cfg.PostgresDSN != "postgres://localhost:5432/oims" {
		t.Fatalf("unexpected dsn: %s", cfg.PostgresDSN)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker-1:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}
