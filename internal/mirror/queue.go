package mirror

import (
	"context"
	"log/slog"

	"rasid/internal/amqp"
	"rasid/internal/core"
)

// Queue is the queued mirror mode: instead of pushing directly it
// publishes a sync trigger for the worker binary. The snapshot argument
// is intentionally unused: the worker reads the store itself, so the
// push always carries the state current at delivery time.
type Queue struct {
	client *amqp.Client
}

func NewQueue(client *amqp.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Push(ctx context.Context, _ core.Snapshot) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := q.client.PublishSnapshotSync(context.WithoutCancel(ctx))
		if err != nil {
			slog.ErrorContext(ctx, "Mirror sync publish failed", "error", err)
		}
		done <- err
	}()
	return done
}
