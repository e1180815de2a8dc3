package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues UUIDv4 ids for orchestrations, mappings, workflows,
// sync logs and outbox events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
