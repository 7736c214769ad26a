package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTransactionTerminal = errors.New("transaction is already terminal")
	ErrNotReservation      = errors.New("transaction is not a reservation")
)

// Transaction records one borrow-or-reserve episode for one copy.
// The identity fields never change after creation. A transaction is
// active until Terminate sets the return time; after that it is frozen,
// except that the reserved flag may flip true->false at most once when
// a hold is converted into an actual loan.
type Transaction struct {
	id         uuid.UUID
	username   string
	resourceID string
	copyNumber int
	reserved   bool
	startedAt  time.Time
	returnedAt *time.Time
}

// NewLoan opens an active checked-out transaction.
func NewLoan(id uuid.UUID, username, resourceID string, copyNumber int, at time.Time) *Transaction {
	return &Transaction{
		id:         id,
		username:   username,
		resourceID: resourceID,
		copyNumber: copyNumber,
		reserved:   false,
		startedAt:  at,
	}
}

// NewHold opens an active reserved transaction (held for pickup).
func NewHold(id uuid.UUID, username, resourceID string, copyNumber int, at time.Time) *Transaction {
	return &Transaction{
		id:         id,
		username:   username,
		resourceID: resourceID,
		copyNumber: copyNumber,
		reserved:   true,
		startedAt:  at,
	}
}

// ReconstructTransaction rebuilds a transaction from its persisted form.
func ReconstructTransaction(
	id uuid.UUID,
	username, resourceID string,
	copyNumber int,
	reserved bool,
	startedAt time.Time,
	returnedAt *time.Time,
) *Transaction {
	return &Transaction{
		id:         id,
		username:   username,
		resourceID: resourceID,
		copyNumber: copyNumber,
		reserved:   reserved,
		startedAt:  startedAt,
		returnedAt: returnedAt,
	}
}

func (t *Transaction) ID() uuid.UUID      { return t.id }
func (t *Transaction) Username() string   { return t.username }
func (t *Transaction) ResourceID() string { return t.resourceID }
func (t *Transaction) CopyNumber() int    { return t.copyNumber }
func (t *Transaction) IsReserved() bool   { return t.reserved }
func (t *Transaction) StartedAt() time.Time {
	return t.startedAt
}

func (t *Transaction) ReturnedAt() *time.Time {
	if t.returnedAt == nil {
		return nil
	}
	at := *t.returnedAt
	return &at
}

func (t *Transaction) IsActive() bool {
	return t.returnedAt == nil
}

// Terminate sets the return time, freezing the transaction.
func (t *Transaction) Terminate(at time.Time) error {
	if !t.IsActive() {
		return ErrTransactionTerminal
	}
	t.returnedAt = &at
	return nil
}

// FulfillHold converts an active reservation into a loan in place.
// This is the only transition the reserved flag ever makes.
func (t *Transaction) FulfillHold() error {
	if !t.IsActive() {
		return ErrTransactionTerminal
	}
	if !t.reserved {
		return ErrNotReservation
	}
	t.reserved = false
	return nil
}
