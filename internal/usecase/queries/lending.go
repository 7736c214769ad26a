package queries

import (
	"context"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/pkg/errs"
)

var ErrCopyNotFound = errs.New("copy not found")

// Reader is the observation side of the lending engine. Implementations
// hand out aggregates for reading only; all mutation goes through the
// command facade.
type Reader interface {
	Account(username string) (*account.Account, error)
	Accounts() []*account.Account
	Resource(id string) (*catalog.Resource, error)
	Resources() []*catalog.Resource
	Entries() []*ledger.Entry
	DaysUntilDue(key catalog.CopyKey) (int, error)
}

type LendingQueries interface {
	GetAccount(ctx context.Context, username string) (*AccountView, error)
	ListAccounts(ctx context.Context) ([]AccountView, error)
	GetResource(ctx context.Context, id string) (*ResourceView, error)
	ListResources(ctx context.Context) ([]ResourceView, error)
	ListEntries(ctx context.Context, username string) ([]EntryView, error)
	CopyHistory(ctx context.Context, key catalog.CopyKey) ([]TransactionView, error)
}

type lendingQueriesImpl struct {
	reader Reader
}

func NewLendingQueries(reader Reader) LendingQueries {
	return &lendingQueriesImpl{reader: reader}
}

func (q *lendingQueriesImpl) GetAccount(_ context.Context, username string) (*AccountView, error) {
	a, err := q.reader.Account(username)
	if err != nil {
		return nil, err
	}
	view := toAccountView(a)
	return &view, nil
}

func (q *lendingQueriesImpl) ListAccounts(_ context.Context) ([]AccountView, error) {
	accounts := q.reader.Accounts()
	out := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountView(a))
	}
	return out, nil
}

func (q *lendingQueriesImpl) GetResource(_ context.Context, id string) (*ResourceView, error) {
	r, err := q.reader.Resource(id)
	if err != nil {
		return nil, err
	}
	view := q.toResourceView(r)
	return &view, nil
}

func (q *lendingQueriesImpl) ListResources(_ context.Context) ([]ResourceView, error) {
	resources := q.reader.Resources()
	out := make([]ResourceView, 0, len(resources))
	for _, r := range resources {
		out = append(out, q.toResourceView(r))
	}
	return out, nil
}

func (q *lendingQueriesImpl) ListEntries(_ context.Context, username string) ([]EntryView, error) {
	var out []EntryView
	for _, e := range q.reader.Entries() {
		if username != "" && e.Username() != username {
			continue
		}
		out = append(out, toEntryView(e))
	}
	return out, nil
}

func (q *lendingQueriesImpl) CopyHistory(_ context.Context, key catalog.CopyKey) ([]TransactionView, error) {
	r, err := q.reader.Resource(key.ResourceID)
	if err != nil {
		return nil, err
	}
	c, ok := r.Copy(key.Number)
	if !ok {
		return nil, ErrCopyNotFound
	}
	var out []TransactionView
	for _, tx := range c.History() {
		out = append(out, toTransactionView(tx))
	}
	if cur := c.Current(); cur != nil {
		out = append(out, toTransactionView(cur))
	}
	return out, nil
}

func toAccountView(a *account.Account) AccountView {
	view := AccountView{
		Username:     a.Username().Value(),
		BalanceCents: a.Balance().Cents(),
		Role:         a.Role().Kind().String(),
		Borrowed:     keyStrings(a.Borrowed()),
		Reserved:     keyStrings(a.Reserved()),
		Requested:    a.Requested(),
	}
	if number, employedAt, ok := a.Role().Staff(); ok {
		view.StaffNumber = &number
		view.EmployedAt = &employedAt
	}
	return view
}

func (q *lendingQueriesImpl) toResourceView(r *catalog.Resource) ResourceView {
	view := ResourceView{
		ID:     r.ID(),
		Title:  r.Title(),
		Author: r.Author(),
		Queue:  r.Queue().Usernames(),
	}
	for _, c := range r.Copies() {
		view.Copies = append(view.Copies, q.toCopyView(c))
	}
	return view
}

func (q *lendingQueriesImpl) toCopyView(c *catalog.Copy) CopyView {
	view := CopyView{
		ResourceID: c.Key().ResourceID,
		Number:     c.Key().Number,
		Status:     c.Status().String(),
	}
	if cur := c.Current(); cur != nil && cur.IsActive() {
		borrower := cur.Username()
		since := cur.StartedAt()
		view.Borrower = &borrower
		view.Since = &since
		if days, err := q.reader.DaysUntilDue(c.Key()); err == nil {
			view.DaysUntilDue = &days
		}
	}
	return view
}

func toEntryView(e *ledger.Entry) EntryView {
	view := EntryView{
		ID:          e.ID(),
		Kind:        e.Kind().String(),
		Username:    e.Username(),
		AmountCents: e.Amount().Cents(),
		OccurredAt:  e.OccurredAt(),
	}
	if resourceID, number, daysOverdue, ok := e.Fine(); ok {
		ref := catalog.CopyKey{ResourceID: resourceID, Number: number}.String()
		view.CopyRef = &ref
		view.DaysOverdue = &daysOverdue
	}
	return view
}

func toTransactionView(tx *ledger.Transaction) TransactionView {
	return TransactionView{
		ID:         tx.ID(),
		Username:   tx.Username(),
		ResourceID: tx.ResourceID(),
		Number:     tx.CopyNumber(),
		Reserved:   tx.IsReserved(),
		StartedAt:  tx.StartedAt(),
		ReturnedAt: tx.ReturnedAt(),
	}
}

func keyStrings(keys []catalog.CopyKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	return out
}
