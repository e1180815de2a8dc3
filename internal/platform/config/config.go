package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string
	AutoMigrate  bool

	WorkerPollInterval     time.Duration
	OutboxBatchSize        int
	OperationConsumerGroup string
	EventDedupTTL          time.Duration

	ScheduledSyncInterval    time.Duration
	ScheduledSyncBatchSize   int
	ScheduledSyncConcurrency int

	EnableOperationConsumer bool
	EnableScheduledSync     bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "adorchestra"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	consumerGroup := strings.TrimSpace(os.Getenv("ORCHESTRATION_CONSUMER_GROUP"))
	if consumerGroup == "" {
		consumerGroup = "orchestration-engine-operations-cg"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,
		AutoMigrate:  envBool("AUTO_MIGRATE", false),

		WorkerPollInterval:     envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:        envInt("OUTBOX_BATCH_SIZE", 100),
		OperationConsumerGroup: consumerGroup,
		EventDedupTTL:          envDuration("EVENT_DEDUP_TTL", 7*24*time.Hour),

		ScheduledSyncInterval:    envDuration("SCHEDULED_SYNC_INTERVAL", 15*time.Minute),
		ScheduledSyncBatchSize:   envInt("SCHEDULED_SYNC_BATCH_SIZE", 50),
		ScheduledSyncConcurrency: envInt("SCHEDULED_SYNC_CONCURRENCY", 4),

		EnableOperationConsumer: envBool("ENABLE_ORCHESTRATION_OPERATION_CONSUMER", true),
		EnableScheduledSync:     envBool("ENABLE_ORCHESTRATION_SCHEDULED_SYNC", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
