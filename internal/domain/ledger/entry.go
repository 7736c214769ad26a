package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNegativeDaysOverdue = errors.New("days overdue cannot be negative")

type EntryKind string

const (
	KindFine    EntryKind = "fine"
	KindPayment EntryKind = "payment"
)

func (k EntryKind) String() string {
	return string(k)
}

// Entry is one append-only financial record against an account.
// Fines carry a copy reference and the days overdue that produced them;
// payments carry only the amount. Entries are never retracted: an
// erroneous fine is corrected with an offsetting payment.
type Entry struct {
	id         uuid.UUID
	kind       EntryKind
	username   string
	amount     Money
	occurredAt time.Time

	// fine payload
	resourceID  string
	copyNumber  int
	daysOverdue int
}

func NewFine(id uuid.UUID, username string, amount Money, resourceID string, copyNumber, daysOverdue int, at time.Time) (*Entry, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if daysOverdue < 0 {
		return nil, ErrNegativeDaysOverdue
	}
	return &Entry{
		id:          id,
		kind:        KindFine,
		username:    username,
		amount:      amount,
		occurredAt:  at,
		resourceID:  resourceID,
		copyNumber:  copyNumber,
		daysOverdue: daysOverdue,
	}, nil
}

func NewPayment(id uuid.UUID, username string, amount Money, at time.Time) (*Entry, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return &Entry{
		id:         id,
		kind:       KindPayment,
		username:   username,
		amount:     amount,
		occurredAt: at,
	}, nil
}

// ReconstructEntry rebuilds an entry from its persisted form.
func ReconstructEntry(
	id uuid.UUID,
	kind EntryKind,
	username string,
	amount Money,
	occurredAt time.Time,
	resourceID string,
	copyNumber, daysOverdue int,
) *Entry {
	return &Entry{
		id:          id,
		kind:        kind,
		username:    username,
		amount:      amount,
		occurredAt:  occurredAt,
		resourceID:  resourceID,
		copyNumber:  copyNumber,
		daysOverdue: daysOverdue,
	}
}

func (e *Entry) ID() uuid.UUID         { return e.id }
func (e *Entry) Kind() EntryKind       { return e.kind }
func (e *Entry) Username() string      { return e.username }
func (e *Entry) Amount() Money         { return e.amount }
func (e *Entry) OccurredAt() time.Time { return e.occurredAt }

// Fine returns the fine payload; ok is false for payments.
func (e *Entry) Fine() (resourceID string, copyNumber, daysOverdue int, ok bool) {
	if e.kind != KindFine {
		return "", 0, 0, false
	}
	return e.resourceID, e.copyNumber, e.daysOverdue, true
}

// SignedDelta is the adjustment the entry applies to the account balance:
// negative for fines, positive for payments.
func (e *Entry) SignedDelta() Money {
	if e.kind == KindFine {
		return e.amount.Negate()
	}
	return e.amount
}
