// Package config загружает настройки сервиса из окружения.
package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	// HTTPAddr — адрес основного API.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// MetricsAddr — адрес служебного сервера (метрики, health).
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	// PostgresDSN — строка подключения; пустая включает in-memory хранилище.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	// KafkaBrokers — список брокеров через запятую; пустой отключает события.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	// LogLevel — уровень логирования logrus.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load читает .env (если он есть) и переменные окружения.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env опционален: в контейнере настройки приходят из окружения.
		log.WithError(err).Debug("no .env file loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default возвращает конфигурацию по умолчанию (для тестов).
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		LogLevel:    "info",
	}
}
