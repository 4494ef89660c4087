package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	SinkNone  = "none"
	SinkAMQP  = "amqp"
	SinkKafka = "kafka"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string

	ServiceAccountJSON string
	ServiceAccountPath string

	StoreDriver string

	NotificationSink string
	AMQPURL          string
	AMQPExchange     string
	KafkaBrokers     []string
	KafkaTopic       string

	OTLPEndpoint    string
	ShutdownTimeout time.Duration

	SendRatePerMinute   int
	TypingRatePerMinute int
	ContactRatePerHour  int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", StoreFirestore)),
		NotificationSink:   strings.ToLower(getEnv("NOTIFICATION_SINK", SinkNone)),
		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "marketplace.notifications"),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "notifications.created"),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if config.StoreDriver == "" {
		config.StoreDriver = StoreFirestore
	}
	if config.NotificationSink == "" {
		config.NotificationSink = SinkNone
	}

	var err error
	if config.ShutdownTimeout, err = getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.SendRatePerMinute, err = getEnvAsInt("SEND_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if config.TypingRatePerMinute, err = getEnvAsInt("TYPING_RATE_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if config.ContactRatePerHour, err = getEnvAsInt("CONTACT_RATE_PER_HOUR", 20); err != nil {
		return nil, err
	}

	switch config.StoreDriver {
	case StoreFirestore:
		if config.FirebaseProject == "" {
			return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore store")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER: %s", config.StoreDriver)
	}

	switch config.NotificationSink {
	case SinkNone, SinkAMQP:
	case SinkKafka:
		if len(config.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("KAFKA_BROKERS is required for the kafka sink")
		}
	default:
		return nil, fmt.Errorf("unsupported NOTIFICATION_SINK: %s", config.NotificationSink)
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if intValue <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return intValue, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
