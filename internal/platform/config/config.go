package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr string

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers string
	AuditTopic   string

	JWTSigningKey      string
	TokenTTL           time.Duration
	GoogleTokenInfoURL string

	MaxShiftHours         float64
	AnalyticsMaxRangeDays int

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ROSTERD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "rosterd.audit"
	}

	return Server{
		Addr:                  addr,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		KafkaBrokers:          os.Getenv("KAFKA_BROKERS"),
		AuditTopic:            auditTopic,
		JWTSigningKey:         jwtSigningKey,
		TokenTTL:              envDuration("TOKEN_TTL", 24*time.Hour),
		GoogleTokenInfoURL:    os.Getenv("GOOGLE_TOKENINFO_URL"),
		MaxShiftHours:         envFloat("MAX_SHIFT_HOURS", 14),
		AnalyticsMaxRangeDays: envInt("ANALYTICS_MAX_RANGE_DAYS", 90),
		ShutdownTimeout:       envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
