// Package worker runs the queued mirror mode: it turns sync triggers
// from AMQP into full-snapshot pushes against the configured sinks.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"rasid/internal/amqp"
	"rasid/internal/core"
	"rasid/internal/ledger"
	"rasid/internal/mirror"
)

type MirrorWorker struct {
	store ledger.Store
	sinks []mirror.Sink
}

func NewMirrorWorker(store ledger.Store, sinks ...mirror.Sink) *MirrorWorker {
	return &MirrorWorker{store: store, sinks: sinks}
}

// HandleSyncMessage loads the state current right now, not the state at
// publish time, and pushes it to every sink. Sink failures are logged
// per sink; the first one is returned so the delivery is dropped, not
// requeued.
func (w *MirrorWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	accounts, err := w.store.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	transactions, err := w.store.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	snap := core.Snapshot{Accounts: accounts, Transactions: transactions}

	var first error
	for _, sink := range w.sinks {
		if err := sink.Push(ctx, snap); err != nil {
			slog.ErrorContext(ctx, "Worker mirror push failed",
				"sink", sink.Name(), "error", err, "requested_at", msg.RequestedAt)
			if first == nil {
				first = fmt.Errorf("push %s: %w", sink.Name(), err)
			}
			continue
		}
		slog.InfoContext(ctx, "Worker mirror push delivered",
			"sink", sink.Name(),
			"accounts", len(snap.Accounts), "transactions", len(snap.Transactions))
	}
	return first
}

// Run consumes sync messages until the context ends.
func (w *MirrorWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeSnapshotSync(ctx, func(msg *amqp.SnapshotSyncMessage) error {
		return w.HandleSyncMessage(ctx, msg)
	})
}
