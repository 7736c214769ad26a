package commands

import (
	"context"
	"time"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"

	"github.com/google/uuid"
)

// Snapshot is the full aggregate graph a store hands the engine at
// startup. Entries are ordered oldest first.
type Snapshot struct {
	Accounts  []*account.Account
	Resources []*catalog.Resource
	Entries   []*ledger.Entry
}

// Store is the persistence collaborator. The engine owns the in-memory
// aggregate graph and calls the store to mint identities and make state
// changes durable; the storage format is the store's own concern.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)

	NextTransactionID() uuid.UUID
	NextStaffNumber(ctx context.Context) (int, error)

	SaveAccount(ctx context.Context, a *account.Account) error
	UpdateAccount(ctx context.Context, a *account.Account) error
	SaveResource(ctx context.Context, r *catalog.Resource) error
	SaveCopy(ctx context.Context, key catalog.CopyKey) error
	SaveTransaction(ctx context.Context, tx *ledger.Transaction) error
	UpdateTransaction(ctx context.Context, tx *ledger.Transaction) error
	SaveEntry(ctx context.Context, e *ledger.Entry) error
	SaveRequest(ctx context.Context, resourceID, username string) error
	DeleteRequest(ctx context.Context, resourceID, username string) error
}

// DuePolicy is the due-date collaborator. The engine treats both queries
// as opaque: it consults OverdueCharge exactly once per return or
// cancellation and bills whatever comes back.
type DuePolicy interface {
	// OverdueCharge returns the accrued charge (>= 0 cents) and the whole
	// days overdue for the copy's active transaction at the given time.
	OverdueCharge(c *catalog.Copy, now time.Time) (ledger.Money, int)
	// DaysUntilDue is signed: negative means the copy is overdue.
	DaysUntilDue(c *catalog.Copy, now time.Time) int
}
