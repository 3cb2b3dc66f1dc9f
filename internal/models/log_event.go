package models

// EventType names a change in a LogEntry's lifecycle.
type EventType string

const (
	EventCreated  EventType = "created"
	EventArchived EventType = "archived"
	EventDeleted  EventType = "deleted"
)

// LogEvent is published to the message queue after every successful mutation
// and appended to the event journal by the journal worker.
type LogEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	EntryID    string    `json:"entry_id"`
	Text       string    `json:"text"`
	Timestamp  string    `json:"timestamp"` // RFC3339Nano
	Archived   bool      `json:"archived"`
	OccurredAt string    `json:"occurred_at"`
}
