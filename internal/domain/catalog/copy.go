package catalog

import (
	"errors"

	"libcirc/internal/domain/ledger"
)

var (
	ErrCopyBusy            = errors.New("copy already has an active transaction")
	ErrNoActiveTransaction = errors.New("copy has no active transaction")
	ErrTransactionActive   = errors.New("cannot archive an active transaction")
)

// Copy is one borrowable instance of a resource. It references at most
// one current transaction (nil means available) and keeps an append-only
// history of terminated ones. Status is derived, never stored.
type Copy struct {
	key     CopyKey
	current *ledger.Transaction
	history []*ledger.Transaction
}

func NewCopy(key CopyKey) *Copy {
	return &Copy{key: key}
}

// ReconstructCopy rebuilds a copy from its persisted transactions.
// History must be ordered oldest first.
func ReconstructCopy(key CopyKey, current *ledger.Transaction, history []*ledger.Transaction) *Copy {
	c := &Copy{key: key, current: current}
	c.history = append(c.history, history...)
	return c
}

func (c *Copy) Key() CopyKey {
	return c.key
}

func (c *Copy) Current() *ledger.Transaction {
	return c.current
}

func (c *Copy) History() []*ledger.Transaction {
	out := make([]*ledger.Transaction, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Copy) Status() CopyStatus {
	switch {
	case c.current == nil || !c.current.IsActive():
		return StatusAvailable
	case c.current.IsReserved():
		return StatusReserved
	default:
		return StatusHeld
	}
}

func (c *Copy) IsAvailable() bool {
	return c.Status() == StatusAvailable
}

// Begin installs a new active transaction. A lingering terminal
// transaction is archived first; an active one is a contract violation.
func (c *Copy) Begin(tx *ledger.Transaction) error {
	if c.current != nil {
		if c.current.IsActive() {
			return ErrCopyBusy
		}
		c.history = append(c.history, c.current)
	}
	c.current = tx
	return nil
}

// Archive moves the current transaction into history. The transaction
// must already be terminal: termination and archival are separate steps
// so the ledger append happens between them.
func (c *Copy) Archive() error {
	if c.current == nil {
		return ErrNoActiveTransaction
	}
	if c.current.IsActive() {
		return ErrTransactionActive
	}
	c.history = append(c.history, c.current)
	c.current = nil
	return nil
}
