package builder

import (
	"time"

	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"

	"github.com/google/uuid"
)

type ResourceBuilder struct {
	ID        string
	Title     string
	Author    string
	CopyCount int
}

func NewResourceBuilder() *ResourceBuilder {
	return &ResourceBuilder{
		ID:        "R1",
		Title:     "The Go Programming Language",
		Author:    "Donovan & Kernighan",
		CopyCount: 1,
	}
}

func (b *ResourceBuilder) WithID(id string) *ResourceBuilder {
	b.ID = id
	return b
}

func (b *ResourceBuilder) WithTitle(title string) *ResourceBuilder {
	b.Title = title
	return b
}

func (b *ResourceBuilder) WithCopies(n int) *ResourceBuilder {
	b.CopyCount = n
	return b
}

func (b *ResourceBuilder) BuildDomain() (*catalog.Resource, error) {
	r, err := catalog.NewResource(b.ID, b.Title, b.Author)
	if err != nil {
		return nil, err
	}
	for i := 0; i < b.CopyCount; i++ {
		r.AddCopy()
	}
	return r, nil
}

// NewActiveLoan is a shorthand for an open checked-out transaction.
func NewActiveLoan(username string, key catalog.CopyKey, at time.Time) *ledger.Transaction {
	return ledger.NewLoan(uuid.New(), username, key.ResourceID, key.Number, at)
}

// NewActiveHold is a shorthand for an open reserved transaction.
func NewActiveHold(username string, key catalog.CopyKey, at time.Time) *ledger.Transaction {
	return ledger.NewHold(uuid.New(), username, key.ResourceID, key.Number, at)
}
