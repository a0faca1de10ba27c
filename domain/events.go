package domain

import "context"

// Event entity types.
const (
	EntityStartup = "startup"
	EntityBoard   = "board"
	EntityColumn  = "column"
	EntityTask    = "task"
)

// Event operation types.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventMoved   = "moved"
)

// Event is a board change notification published after a successful mutation.
// Consumers (dashboards, integrations) read these from the events queue.
type Event struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Type       string `json:"type"`
	Time       int64  `json:"time"`
}

// EventPublisher delivers change events to downstream consumers. Publishing
// is best effort; the service logs failures and never surfaces them.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
