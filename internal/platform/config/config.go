// Package config centralizes env-driven configuration so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
}

// Redis configures the optional shared context store backend. An empty URL
// means the in-memory store is used instead.
type Redis struct {
	URL          string
	ContextTTL   time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the optional event forwarder. No brokers means events stay
// in-process only.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Runtime tunes the service runtime itself.
type Runtime struct {
	HealthInterval time.Duration
	ProbeTimeout   time.Duration
}

// Config is the full process configuration.
type Config struct {
	Server  Server
	Redis   Redis
	Kafka   Kafka
	Runtime Runtime
}

// FromEnv builds the configuration from environment variables, applying
// development defaults for anything unset.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envString("PAYGRID_ADDR", ":8080"),
			JWTSigningKey: envString("PAYGRID_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envString("PAYGRID_JWT_ISSUER", "paygrid"),
		},
		Redis: Redis{
			URL:          os.Getenv("PAYGRID_REDIS_URL"),
			ContextTTL:   envDuration("PAYGRID_CONTEXT_TTL", 30*time.Minute),
			PoolSize:     envInt("PAYGRID_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PAYGRID_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("PAYGRID_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PAYGRID_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PAYGRID_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("PAYGRID_KAFKA_BROKERS"),
			Topic:   envString("PAYGRID_KAFKA_TOPIC", "paygrid.runtime.events"),
		},
		Runtime: Runtime{
			HealthInterval: envDuration("PAYGRID_HEALTH_INTERVAL", 30*time.Second),
			ProbeTimeout:   envDuration("PAYGRID_PROBE_TIMEOUT", 5*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
