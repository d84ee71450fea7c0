package domain

import "time"

type EventType string

const (
	EventAuthStarted     EventType = "auth.started"
	EventAuthSucceeded   EventType = "auth.succeeded"
	EventAuthFailed      EventType = "auth.failed"
	EventStreamStarted   EventType = "stream.started"
	EventStreamSucceeded EventType = "stream.succeeded"
	EventStreamFailed    EventType = "stream.failed"
)

// Event is a status update pushed to anyone watching a session's progress.
type Event struct {
	Type      EventType              `json:"type"`
	SessionID SessionID              `json:"session_id,omitempty"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewEvent(eventType EventType, message string) Event {
	return Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (e Event) Failed() bool {
	return e.Type == EventAuthFailed || e.Type == EventStreamFailed
}
