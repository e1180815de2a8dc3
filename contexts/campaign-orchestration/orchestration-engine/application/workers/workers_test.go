package workers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/memory"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/platforms"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/commands"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/workflow"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
	"adorchestra/internal/shared/outbox"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

// failingPublisher rejects every event for one partition until healed.
type failingPublisher struct {
	recordingPublisher
	partition string
}

func (p *failingPublisher) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if p.partition != "" && event.PartitionKey == p.partition {
		return errors.New("broker unavailable")
	}
	return p.recordingPublisher.Publish(ctx, topic, event)
}

type recordingSubscriber struct {
	topics []string
}

func (s *recordingSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	_ func(context.Context, ports.EventEnvelope) error,
) error {
	s.topics = append(s.topics, topic)
	return nil
}

type workerFixture struct {
	store     *memory.Store
	sandboxes map[entities.Platform]*platforms.Sandbox
	create    commands.CreateFromTemplateUseCase
	request   commands.RequestOperationUseCase
	consumer  OperationConsumer
	sync      commands.SyncUseCase
}

func newWorkerFixture() workerFixture {
	total := 500.0
	store := memory.NewStore(
		[]entities.Connection{
			{ConnectionID: "conn-meta", OrgID: "org-1", Platform: entities.PlatformMeta, AccessToken: "token", IsActive: true},
		},
		[]entities.Template{{
			TemplateID:         "tpl-1",
			Name:               "Always On",
			Platforms:          []entities.Platform{entities.PlatformMeta},
			DefaultTotalBudget: &total,
			IsActive:           true,
		}},
	)
	registry, sandboxes := platforms.NewSandboxRegistry()
	syncService := syncing.Service{Adapters: registry, Connections: store, SyncLogs: store, Clock: store, IDGenerator: store}
	engine := workflow.Engine{
		UnitOfWork:  store,
		Store:       store,
		Workflows:   store,
		Connections: store,
		Sync:        syncService,
		Clock:       store,
		IDGenerator: store,
	}
	syncUseCase := commands.SyncUseCase{Store: store, Sync: syncService, Clock: store}
	return workerFixture{
		store:     store,
		sandboxes: sandboxes,
		create: commands.CreateFromTemplateUseCase{
			UnitOfWork:  store,
			Templates:   store,
			Connections: store,
			Clock:       store,
			IDGenerator: store,
		},
		request: commands.RequestOperationUseCase{UnitOfWork: store, Clock: store, IDGenerator: store},
		consumer: OperationConsumer{
			Dedup:        store,
			Deploy:       commands.DeployUseCase{Orchestrations: store, Engine: engine},
			Sync:         syncUseCase,
			Pause:        commands.PauseUseCase{UnitOfWork: store, Sync: syncService, Clock: store, IDGenerator: store},
			Resume:       commands.ResumeUseCase{UnitOfWork: store, Sync: syncService, Clock: store, IDGenerator: store},
			Optimize:     commands.OptimizeUseCase{Orchestrations: store, Engine: engine},
			UpdateBudget: commands.UpdatePlatformBudgetUseCase{UnitOfWork: store, Sync: syncService, Clock: store},
			Clock:        store,
		},
		sync: syncUseCase,
	}
}

func (f workerFixture) createOrchestration(t *testing.T) string {
	t.Helper()
	result, err := f.create.Execute(context.Background(), commands.CreateFromTemplateCommand{
		OrgID:      "org-1",
		UserID:     "user-1",
		TemplateID: "tpl-1",
	})
	if err != nil {
		t.Fatalf("create orchestration failed: %v", err)
	}
	return result.Orchestration.OrchestrationID
}

func (f workerFixture) queue(t *testing.T, orchestrationID string, operation commands.Operation) ports.EventEnvelope {
	t.Helper()
	return f.queueCommand(t, commands.RequestOperationCommand{
		OrgID:           "org-1",
		UserID:          "user-1",
		OrchestrationID: orchestrationID,
		Operation:       operation,
	})
}

func (f workerFixture) queueCommand(t *testing.T, cmd commands.RequestOperationCommand) ports.EventEnvelope {
	t.Helper()
	queued, err := f.request.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("queue %s failed: %v", cmd.Operation, err)
	}
	publisher := &recordingPublisher{}
	if err := (OutboxRelay{Outbox: f.store, Publisher: publisher, Clock: f.store}).RunOnce(context.Background()); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	for _, event := range publisher.events {
		if event.EventID == queued.EventID {
			return event
		}
	}
	t.Fatalf("queued event %s was not relayed", queued.EventID)
	return ports.EventEnvelope{}
}

func countCalls(calls []string, operation string) int {
	count := 0
	for _, call := range calls {
		if call == operation {
			count++
		}
	}
	return count
}

func TestOutboxRelayPublishesPendingRowsOnce(t *testing.T) {
	fixture := newWorkerFixture()
	fixture.createOrchestration(t)
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: fixture.store, Publisher: publisher, Clock: fixture.store, BatchSize: 10}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("first relay run failed: %v", err)
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != commands.EventOrchestrationCreated {
		t.Fatalf("expected one created event, got %+v", publisher.topics)
	}
	for _, message := range fixture.store.OutboxMessages() {
		if message.Status != outbox.StatusPublished {
			t.Fatalf("expected outbox row %s to be published", message.ID)
		}
	}
}

func TestOutboxRelayHoldsBackPartitionAfterPublishFailure(t *testing.T) {
	fixture := newWorkerFixture()
	first := fixture.createOrchestration(t)
	second := fixture.createOrchestration(t)
	if err := (OutboxRelay{Outbox: fixture.store, Publisher: &recordingPublisher{}, Clock: fixture.store}).RunOnce(context.Background()); err != nil {
		t.Fatalf("initial relay failed: %v", err)
	}

	for _, cmd := range []commands.RequestOperationCommand{
		{OrgID: "org-1", UserID: "user-1", OrchestrationID: first, Operation: commands.OperationDeploy},
		{OrgID: "org-1", UserID: "user-1", OrchestrationID: first, Operation: commands.OperationSync},
		{OrgID: "org-1", UserID: "user-1", OrchestrationID: second, Operation: commands.OperationDeploy},
	} {
		if _, err := fixture.request.Execute(context.Background(), cmd); err != nil {
			t.Fatalf("queue %s failed: %v", cmd.Operation, err)
		}
	}

	publisher := &failingPublisher{partition: first}
	relay := OutboxRelay{Outbox: fixture.store, Publisher: publisher, Clock: fixture.store}
	cycle, err := relay.Relay(context.Background())
	if err == nil {
		t.Fatalf("expected the publish failure to be reported")
	}
	if cycle.Published != 1 || cycle.HeldBack != 1 {
		t.Fatalf("expected one published and one held back row, got %+v", cycle)
	}
	if len(publisher.events) != 1 || publisher.events[0].PartitionKey != second {
		t.Fatalf("expected only the other orchestration's event, got %+v", publisher.topics)
	}

	publisher.partition = ""
	cycle, err = relay.Relay(context.Background())
	if err != nil {
		t.Fatalf("healed relay failed: %v", err)
	}
	if cycle.Published != 2 {
		t.Fatalf("expected both held rows to publish, got %+v", cycle)
	}
	got := publisher.topics[1:]
	if len(got) != 2 || got[0] != commands.OperationDeploy.RequestedEventType() || got[1] != commands.OperationSync.RequestedEventType() {
		t.Fatalf("expected deploy before sync for one orchestration, got %+v", got)
	}
}

func TestOperationConsumerExecutesEventOnce(t *testing.T) {
	fixture := newWorkerFixture()
	orchestrationID := fixture.createOrchestration(t)
	event := fixture.queue(t, orchestrationID, commands.OperationDeploy)

	if err := fixture.consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := fixture.consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("replayed delivery failed: %v", err)
	}

	if got := countCalls(fixture.sandboxes[entities.PlatformMeta].Calls(), platforms.OperationCreate); got != 1 {
		t.Fatalf("expected a single remote create, got %d", got)
	}
	orchestration, err := fixture.store.GetOrchestration(context.Background(), "org-1", orchestrationID)
	if err != nil {
		t.Fatalf("get orchestration failed: %v", err)
	}
	if orchestration.Status != entities.OrchestrationStatusActive {
		t.Fatalf("expected deployed orchestration, got %s", orchestration.Status)
	}
}

func TestOperationConsumerRejectsConflictingReplay(t *testing.T) {
	fixture := newWorkerFixture()
	orchestrationID := fixture.createOrchestration(t)
	event := fixture.queue(t, orchestrationID, commands.OperationSync)
	if err := fixture.consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	tampered := event
	tampered.Payload = []byte(`{"org_id":"org-1","orchestration_id":"other","operation":"sync"}`)
	if err := fixture.consumer.Handle(context.Background(), tampered); !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestOperationConsumerDisabledSkipsSubscriptions(t *testing.T) {
	fixture := newWorkerFixture()
	subscriber := &recordingSubscriber{}

	consumer := fixture.consumer
	consumer.Subscriber = subscriber
	consumer.Disabled = true
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(subscriber.topics) != 0 {
		t.Fatalf("disabled consumer must not subscribe, got %+v", subscriber.topics)
	}

	consumer.Disabled = false
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(subscriber.topics) != len(commands.Operations) {
		t.Fatalf("expected one subscription per operation, got %+v", subscriber.topics)
	}
}

func TestScheduledSyncPullsOnlyActiveOrchestrations(t *testing.T) {
	fixture := newWorkerFixture()
	activeID := fixture.createOrchestration(t)
	draftID := fixture.createOrchestration(t)
	if err := fixture.consumer.Handle(context.Background(), fixture.queue(t, activeID, commands.OperationDeploy)); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	fixture.sandboxes[entities.PlatformMeta].QueuePerformance(entities.PerformanceDelta{Spend: 12.5, Impressions: 400, Clicks: 8})

	worker := ScheduledSync{Orchestrations: fixture.store, Sync: fixture.sync, Concurrency: 2}
	if err := worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("scheduled sync failed: %v", err)
	}

	mappings, err := fixture.store.ListMappings(context.Background(), "org-1", activeID)
	if err != nil {
		t.Fatalf("list mappings failed: %v", err)
	}
	if mappings[0].Metrics.Spend != 12.5 || mappings[0].Metrics.Clicks != 8 {
		t.Fatalf("expected pulled metrics, got %+v", mappings[0].Metrics)
	}
	draft, err := fixture.store.GetOrchestration(context.Background(), "org-1", draftID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if draft.LastSyncedAt != nil {
		t.Fatalf("draft orchestration must not be synced")
	}
}

func TestOperationConsumerAppliesQueuedBudgetUpdate(t *testing.T) {
	fixture := newWorkerFixture()
	orchestrationID := fixture.createOrchestration(t)
	if err := fixture.consumer.Handle(context.Background(), fixture.queue(t, orchestrationID, commands.OperationDeploy)); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}

	event := fixture.queueCommand(t, commands.RequestOperationCommand{
		OrgID:           "org-1",
		UserID:          "user-1",
		OrchestrationID: orchestrationID,
		Operation:       commands.OperationUpdateBudget,
		Platform:        "meta",
		Budget:          320,
	})
	if event.EventType != "orchestration.update_budget_requested" {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if err := fixture.consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("budget update failed: %v", err)
	}

	mappings, err := fixture.store.ListMappings(context.Background(), "org-1", orchestrationID)
	if err != nil {
		t.Fatalf("list mappings failed: %v", err)
	}
	if mappings[0].AllocatedBudget != 320 {
		t.Fatalf("expected stored budget 320, got %v", mappings[0].AllocatedBudget)
	}
	campaign, ok := fixture.sandboxes[entities.PlatformMeta].Campaign(mappings[0].ExternalCampaignID)
	if !ok {
		t.Fatalf("expected deployed meta campaign")
	}
	if campaign.DailyBudgetMinor != 32_000 {
		t.Fatalf("expected budget pushed in cents, got %d", campaign.DailyBudgetMinor)
	}
}
