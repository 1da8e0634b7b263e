package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	GRPCPort int
	HTTPPort int

	CartStore string
	RedisAddr string
	CartTTL   time.Duration

	SQLitePath string

	OTelEnabled  bool
	OTelEndpoint string

	CheckoutRevalidateStock bool
	CheckoutMaxConcurrent   int

	PricingFile string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		GRPCPort: getEnvInt("GRPC_PORT", 8081),

		CartStore: strings.ToLower(getEnv("CART_STORE", "memory")),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		CartTTL:   getEnvDuration("CART_TTL", 7*24*time.Hour),

		SQLitePath: getEnv("SQLITE_PATH", "storefront.db"),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		CheckoutRevalidateStock: getEnvBool("CHECKOUT_REVALIDATE_STOCK", true),
		CheckoutMaxConcurrent:   getEnvInt("CHECKOUT_MAX_CONCURRENT", 10),

		PricingFile: getEnv("PRICING_FILE", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
