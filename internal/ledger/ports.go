package ledger

import (
	"context"

	"rasid/internal/core"
)

// Ports for outbound collaborators of the ledger engine.
type (
	// Store is the persistence gateway. Loads seed a default data set when
	// nothing has ever been stored; saves are full-replace writes. It is
	// assumed synchronous and is the single source of durable truth.
	Store interface {
		LoadAccounts(ctx context.Context) ([]core.Account, error)
		LoadTransactions(ctx context.Context) ([]core.Transaction, error)
		SaveAccounts(ctx context.Context, accounts []core.Account) error
		SaveTransactions(ctx context.Context, transactions []core.Transaction) error
		LoadSyncEndpoint(ctx context.Context) (string, error)
		SaveSyncEndpoint(ctx context.Context, endpoint string) error
	}

	// Mirror pushes the full snapshot to remote targets. Push must not
	// block: it returns a result channel the engine never waits on, and
	// delivery failures stay inside the mirror (logged, never surfaced).
	Mirror interface {
		Push(ctx context.Context, snap core.Snapshot) <-chan error
	}
)
