package builder

import (
	"time"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
)

type AccountBuilder struct {
	Username     string
	BalanceCents int64
	Borrowed     []catalog.CopyKey
	Reserved     []catalog.CopyKey
	Requested    []string
	Staff        bool
	StaffNumber  int
	CreatedAt    time.Time
}

func NewAccountBuilder() *AccountBuilder {
	return &AccountBuilder{
		Username:  "alice",
		CreatedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (b *AccountBuilder) With(mutate func(*AccountBuilder)) *AccountBuilder {
	mutate(b)
	return b
}

func (b *AccountBuilder) WithUsername(username string) *AccountBuilder {
	b.Username = username
	return b
}

func (b *AccountBuilder) WithBalanceCents(cents int64) *AccountBuilder {
	b.BalanceCents = cents
	return b
}

func (b *AccountBuilder) WithBorrowed(keys ...catalog.CopyKey) *AccountBuilder {
	b.Borrowed = keys
	return b
}

func (b *AccountBuilder) WithReserved(keys ...catalog.CopyKey) *AccountBuilder {
	b.Reserved = keys
	return b
}

func (b *AccountBuilder) WithRequested(resourceIDs ...string) *AccountBuilder {
	b.Requested = resourceIDs
	return b
}

func (b *AccountBuilder) AsStaff(staffNumber int) *AccountBuilder {
	b.Staff = true
	b.StaffNumber = staffNumber
	return b
}

func (b *AccountBuilder) BuildDomain() (*account.Account, error) {
	username, err := account.NewUsername(b.Username)
	if err != nil {
		return nil, err
	}
	role := account.MemberRole()
	if b.Staff {
		role = account.StaffRole(b.StaffNumber, b.CreatedAt)
	}
	return account.ReconstructAccount(
		username,
		ledger.NewMoney(b.BalanceCents),
		b.Borrowed,
		b.Reserved,
		b.Requested,
		role,
		b.CreatedAt,
	), nil
}
