package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Stripe    StripeConfig
	Ownership OwnershipConfig
	QR        QRConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver       string // "sqlite" or "postgres"
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type OwnershipConfig struct {
	Backend string // "redis" or "memory"
}

type KafkaConfig struct {
	Brokers  []string
	Enabled  bool
	MockMode bool
	Topics   TopicConfig
}

type TopicConfig struct {
	EventCreated   string
	TicketMinted   string
	TicketUsed     string
	EventCancelled string
}

type AuthConfig struct {
	JWTSecret     string
	AdminSubjects []string
}

type StripeConfig struct {
	APIKey   string
	Currency string
	Enabled  bool
}

type QRConfig struct {
	SecretKey string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			DSN:          getEnv("DB_DSN", "file:registry.db?cache=shared"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Ownership: OwnershipConfig{
			Backend: getEnv("OWNERSHIP_BACKEND", "redis"),
		},
		Kafka: KafkaConfig{
			Brokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Enabled:  getEnvBool("KAFKA_ENABLED", true),
			MockMode: getEnvBool("KAFKA_MOCK_MODE", false),
			Topics: TopicConfig{
				EventCreated:   getEnv("KAFKA_TOPIC_EVENT_CREATED", "registry-event-created"),
				TicketMinted:   getEnv("KAFKA_TOPIC_TICKET_MINTED", "registry-ticket-minted"),
				TicketUsed:     getEnv("KAFKA_TOPIC_TICKET_USED", "registry-ticket-used"),
				EventCancelled: getEnv("KAFKA_TOPIC_EVENT_CANCELLED", "registry-event-cancelled"),
			},
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
			AdminSubjects: splitNonEmpty(getEnv("ADMIN_SUBJECTS", "registry-admin")),
		},
		Stripe: StripeConfig{
			APIKey:   getEnv("STRIPE_SECRET_KEY", ""),
			Currency: getEnv("STRIPE_CURRENCY", "usd"),
			Enabled:  getEnvBool("STRIPE_ENABLED", false),
		},
		QR: QRConfig{
			SecretKey: getEnv("QR_SECRET_KEY", "dev-qr-secret"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
