package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/pos/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads .env, config.yaml and POS_* environment overrides, then
// installs the default logger.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}
	SetDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/pos-svc")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("pos")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}
	SetupLogger()
}

// SetDefaults registers the value of every key that has a sensible default.
func SetDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.read_header_timeout_seconds", 5)
	viper.SetDefault("server.http.shutdown_timeout_seconds", 10)
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Authorization", "Content-Type"})
	viper.SetDefault("server.http.cors.max_age", 300)

	viper.SetDefault("store.driver", "postgres")

	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.sslmode", "disable")
	viper.SetDefault("postgres.migrate", true)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.namespace", "pos")

	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.exchange", "pos.notifications")
	viper.SetDefault("rabbitmq.consumer_tag", "pos-svc")
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.retry_interval_seconds", 30)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.service_name", "pos-svc")
	viper.SetDefault("otel.jaeger_endpoint", "http://jaeger:14268/api/traces")

	viper.SetDefault("auth.session_ttl_minutes", 720)
	viper.SetDefault("auth.admin_email", "")

	viper.SetDefault("order.currency", "MXN")
	viper.SetDefault("kitchen.dwell_alert_seconds", 60)

	viper.SetDefault("sync.min_backoff_ms", 200)
	viper.SetDefault("sync.max_backoff_ms", 10000)
	viper.SetDefault("sync.ready_claim_ttl_minutes", 1440)
}

func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("log.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
