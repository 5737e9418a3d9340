package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port string

	DBDSN     string
	RedisAddr string
	RabbitURL string

	// Payment gateway credentials. KeyID is public, KeySecret signs the
	// confirmation callbacks and must never leave the server.
	GatewayURL       string
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayTimeout   time.Duration
	Currency         string

	JWTSecret string

	// CORS
	CORSAllowOrigins []string
}

func Load() Config {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DBDSN:     getenv("STOREFRONT_DB_DSN", ""),
		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RabbitURL: getenv("RABBITMQ_URL", ""),

		GatewayURL:       getenv("GATEWAY_URL", "https://api.razorpay.com"),
		GatewayKeyID:     getenv("GATEWAY_KEY_ID", ""),
		GatewayKeySecret: getenv("GATEWAY_KEY_SECRET", ""),
		GatewayTimeout:   parseDuration(getenv("GATEWAY_TIMEOUT", "10s"), 10*time.Second),
		Currency:         getenv("CURRENCY", "INR"),

		JWTSecret: getenv("JWT_SECRET", ""),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
