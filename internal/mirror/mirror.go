// Package mirror implements the best-effort remote mirror: after every
// mutation the full snapshot is pushed to the configured targets. Pushes
// are fire-and-forget by contract: no retry, no ordering, no delivery
// acknowledgment. Because every push carries the whole current state, an
// out-of-order or lost delivery heals itself on the next successful one.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"rasid/internal/core"
)

// Sink pushes one full snapshot to a remote target.
type Sink interface {
	Name() string
	Push(ctx context.Context, snap core.Snapshot) error
}

// EndpointFunc resolves the currently configured webhook URL; empty means
// mirroring is switched off.
type EndpointFunc func(ctx context.Context) (string, error)

// Webhook POSTs the snapshot as JSON to a user-configured URL, typically
// a Google Apps Script deployment. The endpoint is re-resolved on every
// push so settings changes take effect immediately.
type Webhook struct {
	client   *http.Client
	endpoint EndpointFunc
}

func NewWebhook(client *http.Client, endpoint EndpointFunc) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{client: client, endpoint: endpoint}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Push(ctx context.Context, snap core.Snapshot) error {
	url, err := w.endpoint(ctx)
	if err != nil {
		return fmt.Errorf("resolve endpoint: %w", err)
	}
	if url == "" {
		return nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	// The response body is never consumed, only drained for reuse.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("post snapshot: endpoint returned %s", resp.Status)
	}
	return nil
}

// Dispatcher fans a snapshot out to its sinks on a background goroutine.
// It satisfies the engine's Mirror port: the returned channel reports the
// outcome but the engine drops it, and every failure is logged here and
// swallowed.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{sinks: sinks, timeout: timeout}
}

func (d *Dispatcher) Push(ctx context.Context, snap core.Snapshot) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		// The push outlives the request that triggered it.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		var first error
		for _, sink := range d.sinks {
			if err := sink.Push(pctx, snap); err != nil {
				slog.ErrorContext(pctx, "Mirror push failed",
					"sink", sink.Name(), "error", err,
					"accounts", len(snap.Accounts), "transactions", len(snap.Transactions))
				if first == nil {
					first = err
				}
				continue
			}
			slog.DebugContext(pctx, "Mirror push delivered", "sink", sink.Name())
		}
		done <- first
	}()
	return done
}
