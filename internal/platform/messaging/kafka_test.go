package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"adorchestra/internal/shared/events"
)

func TestNewKafkaRequiresBroker(t *testing.T) {
	if _, err := NewKafka([]string{" ", ""}, nil); err == nil {
		t.Fatalf("expected an error without brokers")
	}
	bus, err := NewKafka([]string{" localhost:9092 ", ""}, nil)
	if err != nil {
		t.Fatalf("new kafka failed: %v", err)
	}
	if got := bus.Brokers(); len(got) != 1 || got[0] != "localhost:9092" {
		t.Fatalf("unexpected brokers %+v", got)
	}
}

type collector struct {
	mu   sync.Mutex
	seen map[string][]string
	wg   *sync.WaitGroup
}

func (c *collector) handle(_ context.Context, event events.Envelope) error {
	c.mu.Lock()
	c.seen[event.PartitionKey] = append(c.seen[event.PartitionKey], event.EventID)
	c.mu.Unlock()
	c.wg.Done()
	return nil
}

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for deliveries")
	}
}

func TestKafkaDeliversOncePerGroupInPartitionOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka failed: %v", err)
	}

	const total = 10
	var wg sync.WaitGroup
	wg.Add(2 * total)
	members := []*collector{
		{seen: map[string][]string{}, wg: &wg},
		{seen: map[string][]string{}, wg: &wg},
	}
	audit := &collector{seen: map[string][]string{}, wg: &wg}
	for _, member := range members {
		if err := bus.Subscribe(ctx, "orchestration.deploy_requested", "operations", member.handle); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}
	if err := bus.Subscribe(ctx, "orchestration.deploy_requested", "audit", audit.handle); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	for i := 0; i < total; i++ {
		key := []string{"orch-a", "orch-b"}[i%2]
		event := events.Envelope{EventID: fmt.Sprintf("evt-%02d", i), EventType: "orchestration.deploy_requested", PartitionKey: key}
		if err := bus.Publish(ctx, event.EventType, event); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	waitFor(t, &wg)

	for _, key := range []string{"orch-a", "orch-b"} {
		if len(audit.seen[key]) != total/2 {
			t.Fatalf("audit group expected %d events for %s, got %d", total/2, key, len(audit.seen[key]))
		}
		owners := 0
		for _, member := range members {
			ids := member.seen[key]
			if len(ids) == 0 {
				continue
			}
			owners++
			for i := 1; i < len(ids); i++ {
				if ids[i-1] > ids[i] {
					t.Fatalf("events for %s out of order: %+v", key, ids)
				}
			}
			if len(ids) != total/2 {
				t.Fatalf("expected one member to own all of %s, got %+v", key, ids)
			}
		}
		if owners != 1 {
			t.Fatalf("expected exactly one member per partition key, got %d for %s", owners, key)
		}
	}
}

func TestKafkaPublishTimesOutWhenGroupIsFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka failed: %v", err)
	}
	bus.buffer = 1
	bus.timeout = 50 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	if err := bus.Subscribe(ctx, "orchestration.sync_requested", "operations", func(context.Context, events.Envelope) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	var last error
	for i := 0; i < 3; i++ {
		last = bus.Publish(ctx, "orchestration.sync_requested", events.Envelope{EventID: fmt.Sprintf("evt-%d", i), PartitionKey: "orch-a"})
	}
	if !errors.Is(last, ErrDeliveryTimeout) {
		t.Fatalf("expected delivery timeout, got %v", last)
	}
}

func TestKafkaPublishWithoutSubscribersSucceeds(t *testing.T) {
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new kafka failed: %v", err)
	}
	if err := bus.Publish(context.Background(), "orchestration.created", events.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish without subscribers failed: %v", err)
	}
}
