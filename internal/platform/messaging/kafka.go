package messaging

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"adorchestra/internal/shared/events"
)

var ErrDeliveryTimeout = errors.New("event delivery timed out")

const (
	defaultMemberBuffer    = 128
	defaultDeliveryTimeout = 5 * time.Second
)

// Kafka is the event bus behind the outbox relay and the operation consumer.
// Delivery is in-process. Each consumer group receives an event once, and the
// partition key picks the group member, so one orchestration's events are
// handled in publish order. Publish waits for room instead of dropping, so a
// relay never marks an undelivered row published.
type Kafka struct {
	mu      sync.RWMutex
	brokers []string
	topics  map[string]map[string][]chan events.Envelope
	buffer  int
	timeout time.Duration
	logger  *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			cleaned = append(cleaned, broker)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}

	logger.Info("event bus ready",
		"event", "kafka_bus_ready",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"brokers", strings.Join(cleaned, ","),
	)
	return &Kafka{
		brokers: cleaned,
		topics:  make(map[string]map[string][]chan events.Envelope),
		buffer:  defaultMemberBuffer,
		timeout: defaultDeliveryTimeout,
		logger:  logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

type delivery struct {
	group  string
	member chan events.Envelope
}

// Publish delivers to every group subscribed to topic. A group that stays
// full past the delivery timeout fails the publish; groups served before it
// keep their copy and rely on consumer dedup when the event is retried.
func (k *Kafka) Publish(ctx context.Context, topic string, event events.Envelope) error {
	targets := k.route(topic, event.PartitionKey)
	for _, target := range targets {
		if err := k.deliver(ctx, target.member, event); err != nil {
			return fmt.Errorf("publish %s to group %s: %w", topic, target.group, err)
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"partition_key", event.PartitionKey,
		"group_count", len(targets),
	)
	return nil
}

func (k *Kafka) route(topic string, partitionKey string) []delivery {
	k.mu.RLock()
	defer k.mu.RUnlock()

	groups := k.topics[topic]
	targets := make([]delivery, 0, len(groups))
	for group, members := range groups {
		if len(members) == 0 {
			continue
		}
		targets = append(targets, delivery{group: group, member: members[partition(partitionKey, len(members))]})
	}
	return targets
}

func (k *Kafka) deliver(ctx context.Context, member chan events.Envelope, event events.Envelope) error {
	timer := time.NewTimer(k.timeout)
	defer timer.Stop()
	select {
	case member <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrDeliveryTimeout
	}
}

func partition(key string, members int) int {
	if members <= 1 || key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(members))
}

// Subscribe joins consumerGroup on topic until ctx is done. Handler errors are
// logged; redelivery is the publisher's concern.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
) error {
	if strings.TrimSpace(consumerGroup) == "" {
		return errors.New("consumer group is required")
	}
	member := make(chan events.Envelope, k.buffer)

	k.mu.Lock()
	if k.topics[topic] == nil {
		k.topics[topic] = make(map[string][]chan events.Envelope)
	}
	k.topics[topic][consumerGroup] = append(k.topics[topic][consumerGroup], member)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.leave(topic, consumerGroup, member)
				return
			case event := <-member:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) leave(topic string, consumerGroup string, target chan events.Envelope) {
	k.mu.Lock()
	defer k.mu.Unlock()

	members := k.topics[topic][consumerGroup]
	kept := make([]chan events.Envelope, 0, len(members))
	for _, member := range members {
		if member != target {
			kept = append(kept, member)
		}
	}
	if len(kept) == 0 {
		delete(k.topics[topic], consumerGroup)
		return
	}
	k.topics[topic][consumerGroup] = kept
}
