package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Secrets are read from the process environment only.
type Secrets struct {
	PGHost     string `env:"STOREFRONT_PG_HOST"     envDefault:"localhost"`
	PGPort     int    `env:"STOREFRONT_PG_PORT"     envDefault:"5432"`
	PGUser     string `env:"STOREFRONT_PG_USER"     envDefault:"storefront"`
	PGPassword string `env:"STOREFRONT_PG_PASSWORD"`
	PGDB       string `env:"STOREFRONT_PG_DB"       envDefault:"storefront"`

	RabbitUser     string `env:"RABBITMQ_DEFAULT_USER" envDefault:"guest"`
	RabbitPassword string `env:"RABBITMQ_DEFAULT_PASS" envDefault:"guest"`

	RedisPassword string `env:"REDIS_PASSWORD"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`

	JWTSecret         string `env:"JWT_SECRET"`
	AdminEmail        string `env:"ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
}

var secrets Secrets

// Env returns the secrets parsed by MustInit.
func Env() Secrets {
	return secrets
}

// MustInit loads .env, the YAML config for service and the environment secrets.
func MustInit(service string) {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	setDefaults()
	viper.SetDefault("otel.service_name", service)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/" + service)
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}

	if err := env.Parse(&secrets); err != nil {
		panic("error while parsing environment: " + err.Error())
	}

	SetupLogger()
}

func SetupLogger() {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(viper.GetString("logger.level"))); err != nil {
		level = slog.LevelInfo
	}

	handler := logger.NewHandler(&slog.HandlerOptions{Level: level})
	log := slog.New(handler)
	slog.SetDefault(log)
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Request-Id"})
	viper.SetDefault("server.http.cors.max_age", 300)
	viper.SetDefault("server.grpc.port", "9090")
	viper.SetDefault("server.grpc.keepalive.max_connection_idle", 15)
	viper.SetDefault("server.grpc.keepalive.max_connection_age", 30)
	viper.SetDefault("server.grpc.keepalive.max_connection_age_grace", 5)
	viper.SetDefault("server.grpc.keepalive.time", 5)
	viper.SetDefault("server.grpc.keepalive.timeout", 1)
	viper.SetDefault("server.grpc.keepalive.min_time", 5)
	viper.SetDefault("server.grpc.keepalive.permit_without_stream", true)

	viper.SetDefault("postgres.sslmode", "disable")
	viper.SetDefault("postgres.migrate", true)
	viper.SetDefault("postgres.migrations_path", "./migrations")

	viper.SetDefault("rabbitmq.host", "rabbitmq")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.exchange", "storefront.orders")
	viper.SetDefault("rabbitmq.queue", "storefront.notifier")
	viper.SetDefault("rabbitmq.consumer_tag", "notifier")
	viper.SetDefault("rabbitmq.prefetch", 20)
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 2)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.max_retries", 10)
	viper.SetDefault("rabbitmq.inbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.inbox.batch_size", 50)
	viper.SetDefault("rabbitmq.inbox.max_retries", 5)

	viper.SetDefault("redis.addr", "redis:6379")
	viper.SetDefault("redis.prefix", "storefront")

	viper.SetDefault("otel.jaeger.endpoint", "http://jaeger:14268/api/traces")

	viper.SetDefault("pricing.tax_rate", "0.13")
	viper.SetDefault("pricing.shipping_fee", "9.99")

	viper.SetDefault("payments.card.timeout_seconds", 20)
	viper.SetDefault("payments.chain.rpc_endpoint", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("payments.chain.business_address", "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH")
	viper.SetDefault("payments.chain.tolerance_lamports", 500_000)
	viper.SetDefault("payments.chain.min_confirmations", 1)
	viper.SetDefault("payments.chain.verify_timeout_seconds", 30)
	viper.SetDefault("payments.chain.quote_ttl_minutes", 15)
	viper.SetDefault("payments.oracle.base_url", "https://api.coingecko.com/api/v3")
	viper.SetDefault("payments.oracle.cache_ttl_seconds", 60)
	viper.SetDefault("payments.oracle.timeout_seconds", 10)

	viper.SetDefault("auth.token_ttl_hours", 24)

	viper.SetDefault("grpc.order_service_addr", "storefront:9090")
	viper.SetDefault("grpc.timeout_seconds", 10)

	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "orders@example.com")
}
