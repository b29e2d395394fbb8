package domain

import "time"

// EventKind classifies timeline entries.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventDelete EventKind = "delete"
	EventUp     EventKind = "up"
	EventDown   EventKind = "down"
)

// Event is one entry in the audit timeline: lifecycle changes and
// up/down transitions. TargetID may be empty for delete events whose
// target is already gone.
type Event struct {
	ID        int64     `json:"id"`
	TargetID  string    `json:"target_id,omitempty"`
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel is a configured notification destination. Config carries the
// provider-specific settings, e.g. webhook_url or smtp_host.
type Channel struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Provider  string            `json:"type"`
	Config    map[string]string `json:"config"`
	Enabled   bool              `json:"enabled"`
	CreatedAt time.Time         `json:"created_at"`
}

// Heartbeat is one report from a push target. Push targets are never
// probed; they call in, and staleness is judged against 2x interval.
type Heartbeat struct {
	ID        int64     `json:"id"`
	TargetID  string    `json:"target_id"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
