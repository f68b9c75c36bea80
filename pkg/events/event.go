package events

import "time"

// Event types published on the lifecycle bus. The NATS subject is
// "events.<type>".
const (
	TypeVisualizationStarted   = "VISUALIZATION_STARTED"
	TypeVisualizationCompleted = "VISUALIZATION_COMPLETED"
	TypeVisualizationFailed    = "VISUALIZATION_FAILED"
	TypeConceptRegenerated     = "CONCEPT_REGENERATED"
	TypeSessionReset           = "SESSION_RESET"
)

// Event defines the contract for all lifecycle events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "VISUALIZATION_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with the current time and copies the timestamp into
// its payload, since only the payload goes over the wire.
func New(eventType string, data map[string]interface{}) BaseEvent {
	now := time.Now()
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["occurred_at"] = now
	return BaseEvent{Type: eventType, Data: payload, OccurredAt: now}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
