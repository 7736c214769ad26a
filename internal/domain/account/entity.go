package account

import (
	"errors"
	"time"

	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
)

var (
	ErrInsufficientFunds = errors.New("account balance is negative")
	ErrDuplicateRequest  = errors.New("account already requested this resource")
)

// Account aggregates one user's balance, held and reserved copies, and
// outstanding resource requests. The lending engine is the sole writer;
// every other component only reads through the getters.
type Account struct {
	username  Username
	balance   ledger.Money
	borrowed  []catalog.CopyKey
	reserved  []catalog.CopyKey
	requested []string
	role      Role
	createdAt time.Time
}

func NewAccount(username Username, role Role, at time.Time) *Account {
	return &Account{
		username:  username,
		role:      role,
		createdAt: at,
	}
}

// ReconstructAccount rebuilds an account from its persisted form.
func ReconstructAccount(
	username Username,
	balance ledger.Money,
	borrowed, reserved []catalog.CopyKey,
	requested []string,
	role Role,
	createdAt time.Time,
) *Account {
	a := &Account{
		username:  username,
		balance:   balance,
		role:      role,
		createdAt: createdAt,
	}
	a.borrowed = append(a.borrowed, borrowed...)
	a.reserved = append(a.reserved, reserved...)
	a.requested = append(a.requested, requested...)
	return a
}

func (a *Account) Username() Username    { return a.username }
func (a *Account) Balance() ledger.Money { return a.balance }
func (a *Account) Role() Role            { return a.role }
func (a *Account) CreatedAt() time.Time  { return a.createdAt }

func (a *Account) Borrowed() []catalog.CopyKey {
	out := make([]catalog.CopyKey, len(a.borrowed))
	copy(out, a.borrowed)
	return out
}

func (a *Account) Reserved() []catalog.CopyKey {
	out := make([]catalog.CopyKey, len(a.reserved))
	copy(out, a.reserved)
	return out
}

func (a *Account) Requested() []string {
	out := make([]string, len(a.requested))
	copy(out, a.requested)
	return out
}

// CanBorrow reports whether new issuance is permitted. Fines may push the
// balance negative, but nothing new is issued until the debt is settled.
func (a *Account) CanBorrow() bool {
	return !a.balance.IsNegative()
}

// Apply adjusts the balance by the entry's signed delta.
func (a *Account) Apply(e *ledger.Entry) {
	a.balance = a.balance.Add(e.SignedDelta())
}

func (a *Account) AddBorrowed(key catalog.CopyKey) {
	a.borrowed = append(a.borrowed, key)
}

func (a *Account) RemoveBorrowed(key catalog.CopyKey) bool {
	for i, k := range a.borrowed {
		if k == key {
			a.borrowed = append(a.borrowed[:i], a.borrowed[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Account) AddReserved(key catalog.CopyKey) {
	a.reserved = append(a.reserved, key)
}

func (a *Account) RemoveReserved(key catalog.CopyKey) bool {
	for i, k := range a.reserved {
		if k == key {
			a.reserved = append(a.reserved[:i], a.reserved[i+1:]...)
			return true
		}
	}
	return false
}

// FulfillReservation moves a copy from the reserved set to the borrowed
// set when a hold converts into a loan.
func (a *Account) FulfillReservation(key catalog.CopyKey) bool {
	if !a.RemoveReserved(key) {
		return false
	}
	a.AddBorrowed(key)
	return true
}

func (a *Account) HasRequested(resourceID string) bool {
	for _, id := range a.requested {
		if id == resourceID {
			return true
		}
	}
	return false
}

// AddRequest records an outstanding request. At most one active request
// per resource per account.
func (a *Account) AddRequest(resourceID string) error {
	if a.HasRequested(resourceID) {
		return ErrDuplicateRequest
	}
	a.requested = append(a.requested, resourceID)
	return nil
}

func (a *Account) RemoveRequest(resourceID string) bool {
	for i, id := range a.requested {
		if id == resourceID {
			a.requested = append(a.requested[:i], a.requested[i+1:]...)
			return true
		}
	}
	return false
}

// PromoteToStaff projects the account into its staff shape. Identity,
// balance, sets and history all carry over.
func (a *Account) PromoteToStaff(staffNumber int, at time.Time) error {
	if a.role.IsStaff() {
		return ErrAlreadyStaff
	}
	a.role = StaffRole(staffNumber, at)
	return nil
}

// DemoteToMember is the inverse projection.
func (a *Account) DemoteToMember() error {
	if !a.role.IsStaff() {
		return ErrNotStaff
	}
	a.role = MemberRole()
	return nil
}
