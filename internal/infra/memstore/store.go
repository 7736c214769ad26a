package memstore

import (
	"context"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/usecase/commands"

	"github.com/google/uuid"
)

// Store is the in-memory persistence collaborator: it mints identities
// and records every append/update so tests can assert what the engine
// persisted. Nothing survives the process.
type Store struct {
	nextStaff    int
	accounts     map[string]*account.Account
	transactions map[uuid.UUID]*ledger.Transaction
	entries      []*ledger.Entry
	requests     map[string][]string
	resources    []string
	copies       []catalog.CopyKey
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]*account.Account),
		transactions: make(map[uuid.UUID]*ledger.Transaction),
		requests:     make(map[string][]string),
	}
}

func (s *Store) Load(_ context.Context) (*commands.Snapshot, error) {
	return &commands.Snapshot{}, nil
}

func (s *Store) NextTransactionID() uuid.UUID {
	return uuid.New()
}

func (s *Store) NextStaffNumber(_ context.Context) (int, error) {
	s.nextStaff++
	return s.nextStaff, nil
}

func (s *Store) SaveAccount(_ context.Context, a *account.Account) error {
	s.accounts[a.Username().Value()] = a
	return nil
}

func (s *Store) UpdateAccount(_ context.Context, a *account.Account) error {
	s.accounts[a.Username().Value()] = a
	return nil
}

func (s *Store) SaveResource(_ context.Context, r *catalog.Resource) error {
	s.resources = append(s.resources, r.ID())
	return nil
}

func (s *Store) SaveCopy(_ context.Context, key catalog.CopyKey) error {
	s.copies = append(s.copies, key)
	return nil
}

func (s *Store) SaveTransaction(_ context.Context, tx *ledger.Transaction) error {
	s.transactions[tx.ID()] = tx
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *ledger.Transaction) error {
	s.transactions[tx.ID()] = tx
	return nil
}

func (s *Store) SaveEntry(_ context.Context, e *ledger.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *Store) SaveRequest(_ context.Context, resourceID, username string) error {
	s.requests[resourceID] = append(s.requests[resourceID], username)
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, resourceID, username string) error {
	waiting := s.requests[resourceID]
	for i, u := range waiting {
		if u == username {
			s.requests[resourceID] = append(waiting[:i], waiting[i+1:]...)
			break
		}
	}
	return nil
}

// Entries exposes the persisted journal for test assertions.
func (s *Store) Entries() []*ledger.Entry {
	out := make([]*ledger.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Transactions exposes the persisted transactions for test assertions.
func (s *Store) Transactions() []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx)
	}
	return out
}
