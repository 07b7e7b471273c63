// Package notify publishes domain events to a Redis stream for downstream
// consumers (operator dashboards, winner announcement tooling). Publication is
// fire-and-forget: a failed emit is logged and never surfaces to the caller.
package notify

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"rifa/internal/platform/redis"
	"rifa/pkg/requestcontext"
)

const stream = "rifa:events"

// Publisher emits events onto the raffle event stream.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// Emit appends one event to the stream. The request id travels with the event
// so consumers can correlate it with the originating request.
func (p *Publisher) Emit(ctx context.Context, event string, fields map[string]any) {
	values := map[string]any{"event": event}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		values["request_id"] = reqID
	}
	for k, v := range fields {
		values[k] = v
	}

	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: stream,
		MaxLen: 10_000,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		p.logger.WarnContext(ctx, "event publish failed", "event", event, "error", err)
	}
}
