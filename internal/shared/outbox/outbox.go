package outbox

// Row states for the outbox table. Rows are written in the same transaction
// as the aggregate change and flipped to published by the relay.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Message is the relay-facing view of an outbox row.
type Message struct {
	ID           string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string
}

func (m Message) Pending() bool {
	return m.Status == "" || m.Status == StatusPending
}
