package connection_manager

import (
	"context"
	"time"

	"github.com/sahulatai/agentic-backend/internal/domain"
)

type EventType string

const (
	ConnectionCreated     EventType = "connection_created"
	ConnectionInvalidated EventType = "connection_invalidated"
	ConnectionFailed      EventType = "connection_failed"
)

type ConnectionEvent struct {
	Type        EventType
	TenantID    domain.TenantID
	Integration domain.IntegrationName
	Fingerprint string
	Reason      string
	OccurredAt  time.Time
}

// EventPublisher is told about registry changes. Publish must not block the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event ConnectionEvent)
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, ConnectionEvent) {}
