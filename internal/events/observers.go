package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Publisher forwards serialized events to an external channel. The Redis
// wrapper in persistence satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// AllTypes lists every event type emitted by the services.
var AllTypes = []Type{
	EventTicketCreated,
	EventTicketUpdated,
	EventCommentAdded,
	EventAttachmentAdded,
	EventAttachmentDeleted,
	EventBulkApplied,
}

// RegisterLogObserver logs every published event.
func RegisterLogObserver(dispatcher Dispatcher, logger *zap.Logger) {
	handler := func(ctx context.Context, event Event) error {
		logger.Info("domain event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.String("actor_id", event.ActorID),
		)
		return nil
	}
	for _, eventType := range AllTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}

// RegisterFanOutObserver publishes every event as JSON to the given channel
// for external consumers. Publish failures are logged, never propagated; the
// originating mutation has already committed.
func RegisterFanOutObserver(dispatcher Dispatcher, publisher Publisher, channel string, logger *zap.Logger) {
	handler := func(ctx context.Context, event Event) error {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Error("marshal event", zap.Error(err))
			return nil
		}
		if err := publisher.Publish(ctx, channel, payload); err != nil {
			logger.Warn("publish event", zap.String("channel", channel), zap.Error(err))
		}
		return nil
	}
	for _, eventType := range AllTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}
