package memory

import (
	"context"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

// txStore is the AggregateStore handed to a transaction. Reads go straight to
// the Store; each write records how to undo itself. Undo steps run under s.mu.
type txStore struct {
	*Store
	undo []func()
}

func (t *txStore) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txStore) CreateOrchestration(ctx context.Context, orchestration entities.Orchestration) error {
	if err := t.Store.CreateOrchestration(ctx, orchestration); err != nil {
		return err
	}
	id := orchestration.OrchestrationID
	t.undo = append(t.undo, func() {
		delete(t.orchestrations, id)
	})
	return nil
}

func (t *txStore) UpdateOrchestration(ctx context.Context, orchestration entities.Orchestration) (entities.Orchestration, error) {
	prior, err := t.Store.GetOrchestration(ctx, orchestration.OrgID, orchestration.OrchestrationID)
	if err != nil {
		return entities.Orchestration{}, err
	}
	updated, err := t.Store.UpdateOrchestration(ctx, orchestration)
	if err != nil {
		return entities.Orchestration{}, err
	}
	t.undo = append(t.undo, func() {
		// A later write from outside the transaction wins.
		if current, ok := t.orchestrations[prior.OrchestrationID]; ok && current.Version == updated.Version {
			t.orchestrations[prior.OrchestrationID] = prior
		}
	})
	return updated, nil
}

func (t *txStore) CreateMapping(ctx context.Context, mapping entities.PlatformMapping) error {
	if err := t.Store.CreateMapping(ctx, mapping); err != nil {
		return err
	}
	id := mapping.PlatformMappingID
	t.undo = append(t.undo, func() {
		delete(t.mappings, id)
		for index, item := range t.mappingOrder {
			if item == id {
				t.mappingOrder = append(t.mappingOrder[:index:index], t.mappingOrder[index+1:]...)
				break
			}
		}
	})
	return nil
}

func (t *txStore) UpdateMapping(ctx context.Context, mapping entities.PlatformMapping) (entities.PlatformMapping, error) {
	prior, err := t.Store.GetMapping(ctx, mapping.OrgID, mapping.PlatformMappingID)
	if err != nil {
		return entities.PlatformMapping{}, err
	}
	updated, err := t.Store.UpdateMapping(ctx, mapping)
	if err != nil {
		return entities.PlatformMapping{}, err
	}
	t.undo = append(t.undo, func() {
		if current, ok := t.mappings[prior.PlatformMappingID]; ok && current.Version == updated.Version {
			t.mappings[prior.PlatformMappingID] = prior
		}
	})
	return updated, nil
}

func (t *txStore) IncrementTemplateUsage(ctx context.Context, templateID string) error {
	if err := t.Store.IncrementTemplateUsage(ctx, templateID); err != nil {
		return err
	}
	t.undo = append(t.undo, func() {
		if item, ok := t.templates[templateID]; ok && item.UsageCount > 0 {
			item.UsageCount--
			t.templates[templateID] = item
		}
	})
	return nil
}

func (t *txStore) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if err := t.Store.AppendOutbox(ctx, envelope); err != nil {
		return err
	}
	id := envelope.EventID
	t.undo = append(t.undo, func() {
		for index, record := range t.outbox {
			if record.message.OutboxID == id {
				t.outbox = append(t.outbox[:index:index], t.outbox[index+1:]...)
				break
			}
		}
	})
	return nil
}
