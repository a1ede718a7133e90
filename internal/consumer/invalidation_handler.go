package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/engagement/internal/events"
)

// Invalidator drops cached snapshots so the next read refetches from the
// data platform.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// InvalidationHandler maps change-feed events onto cache invalidation.
type InvalidationHandler struct {
	invalidator Invalidator
}

// NewInvalidationHandler constructs a handler over the given invalidator.
func NewInvalidationHandler(invalidator Invalidator) *InvalidationHandler {
	return &InvalidationHandler{invalidator: invalidator}
}

// Handle decodes the payload for the known event types and invalidates
// cached snapshots. Unknown event types are ignored so new feed events
// never wedge the consumer.
func (h *InvalidationHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeEntryUpserted:
		var payload events.EntryUpserted
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
	case events.TypeEntryDeleted:
		var payload events.EntryDeleted
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
	case events.TypeSummaryRefreshed:
		var payload events.SummaryRefreshed
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
	default:
		return nil
	}
	return h.invalidator.Invalidate(ctx)
}
