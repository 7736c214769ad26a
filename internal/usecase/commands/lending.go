package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"libcirc/internal/domain/account"
	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/pkg/clock"
	"libcirc/internal/pkg/errs"
)

var (
	ErrInsufficientFunds  = errs.New("insufficient funds")
	ErrDuplicateIdentity  = errs.New("username already taken")
	ErrInvariantViolation = errs.New("lending invariant violated")
	ErrAccountNotFound    = errs.New("account not found")
	ErrResourceNotFound   = errs.New("resource not found")
	ErrCopyNotFound       = errs.New("copy not found")
	ErrCopyUnavailable    = errs.New("copy is not available")
	ErrDomainValidation   = errs.New("domain validation error")
	ErrStoreFailure       = errs.New("store operation failed")
)

type LendingCommands interface {
	RegisterAccount(ctx context.Context, username string) (*account.Account, error)
	AddResource(ctx context.Context, id, title, author string) (*catalog.Resource, error)
	AddCopy(ctx context.Context, resourceID string) (catalog.CopyKey, error)

	Issue(ctx context.Context, username string, key catalog.CopyKey) (*ledger.Transaction, error)
	Reserve(ctx context.Context, key catalog.CopyKey, username string) (*ledger.Transaction, error)
	Return(ctx context.Context, key catalog.CopyKey) error
	CancelReservation(ctx context.Context, key catalog.CopyKey) error

	Request(ctx context.Context, resourceID, username string) error
	CancelRequest(ctx context.Context, resourceID, username string) error

	AddFine(ctx context.Context, username string, amountCents int64, key catalog.CopyKey, daysOverdue int) error
	MakePayment(ctx context.Context, username string, amountCents int64) error

	PromoteStaff(ctx context.Context, username string) (int, error)
	DemoteStaff(ctx context.Context, username string) error
}

// LendingEngine is the facade tying the copy state machine, the ledger,
// the account aggregates and the request queues together. It is the only
// component allowed to mutate them, and it enforces the operation order:
// eligibility check, state mutation, ledger append, account-set
// mutation, queue promotion.
//
// One engine-wide mutex serializes every operation, which is the
// serialization the lending invariants assume.
type LendingEngine struct {
	mu        sync.Mutex
	accounts  map[string]*account.Account
	resources map[string]*catalog.Resource
	// insertion order, for deterministic listings
	accountOrder  []string
	resourceOrder []string
	journal       []*ledger.Entry

	store  Store
	policy DuePolicy
	clock  clock.Clock
	logger *slog.Logger
}

// NewLendingEngine loads the aggregate graph from the store and wires
// the collaborators. The engine holds references, not ownership, of the
// collaborators themselves.
func NewLendingEngine(ctx context.Context, store Store, policy DuePolicy, clk clock.Clock, logger *slog.Logger) (*LendingEngine, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to load store snapshot"), ErrStoreFailure)
	}

	e := &LendingEngine{
		accounts:  make(map[string]*account.Account),
		resources: make(map[string]*catalog.Resource),
		store:     store,
		policy:    policy,
		clock:     clk,
		logger:    logger,
	}
	for _, a := range snap.Accounts {
		e.accounts[a.Username().Value()] = a
		e.accountOrder = append(e.accountOrder, a.Username().Value())
	}
	for _, r := range snap.Resources {
		e.resources[r.ID()] = r
		e.resourceOrder = append(e.resourceOrder, r.ID())
	}
	e.journal = append(e.journal, snap.Entries...)
	return e, nil
}

// ------------------ registration & catalog ------------------

func (e *LendingEngine) RegisterAccount(ctx context.Context, rawUsername string) (*account.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	username, err := account.NewUsername(rawUsername)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	if _, taken := e.accounts[username.Value()]; taken {
		return nil, ErrDuplicateIdentity
	}

	a := account.NewAccount(username, account.MemberRole(), e.clock.Now())
	if err := e.store.SaveAccount(ctx, a); err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	e.accounts[username.Value()] = a
	e.accountOrder = append(e.accountOrder, username.Value())

	e.logger.Info("account registered", "username", username.Value())
	return a, nil
}

func (e *LendingEngine) AddResource(ctx context.Context, id, title, author string) (*catalog.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := catalog.NewResource(id, title, author)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	if _, exists := e.resources[r.ID()]; exists {
		return nil, ErrDuplicateIdentity
	}
	if err := e.store.SaveResource(ctx, r); err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	e.resources[r.ID()] = r
	e.resourceOrder = append(e.resourceOrder, r.ID())
	return r, nil
}

func (e *LendingEngine) AddCopy(ctx context.Context, resourceID string) (catalog.CopyKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.resources[resourceID]
	if !ok {
		return catalog.CopyKey{}, ErrResourceNotFound
	}
	c := r.AddCopy()
	if err := e.store.SaveCopy(ctx, c.Key()); err != nil {
		return catalog.CopyKey{}, errs.Mark(err, ErrStoreFailure)
	}
	// A copy appearing may satisfy a waiting request straight away.
	if err := e.promoteNext(ctx, r); err != nil {
		return catalog.CopyKey{}, err
	}
	return c.Key(), nil
}

// ------------------ lending operations ------------------

// Issue checks out a copy to a user. A copy reserved for that same user
// converts the hold in place; any other active transaction on the copy
// is a contract violation. Nothing is mutated when the account balance
// is negative.
func (e *LendingEngine) Issue(ctx context.Context, username string, key catalog.CopyKey) (*ledger.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	c, err := e.findCopy(key)
	if err != nil {
		return nil, err
	}
	if !a.CanBorrow() {
		return nil, ErrInsufficientFunds
	}

	if cur := c.Current(); cur != nil && cur.IsActive() {
		if !cur.IsReserved() || cur.Username() != username {
			return nil, errs.Mark(errs.Newf("copy %s already has an active transaction", key), ErrInvariantViolation)
		}
		// Fulfilling a hold: the reservation's own transaction becomes
		// the loan, the one true->false flip it will ever make.
		if err := cur.FulfillHold(); err != nil {
			return nil, errs.Mark(err, ErrInvariantViolation)
		}
		if !a.FulfillReservation(key) {
			return nil, errs.Mark(errs.Newf("copy %s not in reserved set of %s", key, username), ErrInvariantViolation)
		}
		if err := e.store.UpdateTransaction(ctx, cur); err != nil {
			return nil, errs.Mark(err, ErrStoreFailure)
		}
		if err := e.store.UpdateAccount(ctx, a); err != nil {
			return nil, errs.Mark(err, ErrStoreFailure)
		}
		e.logger.Info("hold fulfilled", "username", username, "copy", key.String())
		return cur, nil
	}

	tx := ledger.NewLoan(e.store.NextTransactionID(), username, key.ResourceID, key.Number, e.clock.Now())
	if err := c.Begin(tx); err != nil {
		return nil, errs.Mark(err, ErrInvariantViolation)
	}
	a.AddBorrowed(key)
	if err := e.store.SaveTransaction(ctx, tx); err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("copy issued", "username", username, "copy", key.String())
	return tx, nil
}

// Reserve holds an available copy for a user. No funds check: holds are
// free, only issuance is gated on debt.
func (e *LendingEngine) Reserve(ctx context.Context, key catalog.CopyKey, username string) (*ledger.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reserveLocked(ctx, key, username)
}

func (e *LendingEngine) reserveLocked(ctx context.Context, key catalog.CopyKey, username string) (*ledger.Transaction, error) {
	a, ok := e.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	c, err := e.findCopy(key)
	if err != nil {
		return nil, err
	}
	if !c.IsAvailable() {
		return nil, ErrCopyUnavailable
	}

	tx := ledger.NewHold(e.store.NextTransactionID(), username, key.ResourceID, key.Number, e.clock.Now())
	if err := c.Begin(tx); err != nil {
		return nil, errs.Mark(err, ErrInvariantViolation)
	}
	a.AddReserved(key)
	if err := e.store.SaveTransaction(ctx, tx); err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return nil, errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("copy reserved", "username", username, "copy", key.String())
	return tx, nil
}

// Return settles and terminates a copy's active transaction, whether the
// copy was checked out or merely held, then promotes the next requester.
func (e *LendingEngine) Return(ctx context.Context, key catalog.CopyKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.findCopy(key)
	if err != nil {
		return err
	}
	if c.Current() == nil || !c.Current().IsActive() {
		return errs.Mark(errs.Newf("copy %s has no active transaction", key), ErrInvariantViolation)
	}
	return e.settleAndRelease(ctx, c)
}

// CancelReservation is behaviorally the return path restricted to
// reserved copies. The two operations stay distinct by name because a
// hold differs conceptually from a loan, even though today they share
// one settlement sequence.
func (e *LendingEngine) CancelReservation(ctx context.Context, key catalog.CopyKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.findCopy(key)
	if err != nil {
		return err
	}
	if c.Status() != catalog.StatusReserved {
		return errs.Mark(errs.Newf("copy %s is not reserved", key), ErrInvariantViolation)
	}
	return e.settleAndRelease(ctx, c)
}

// settleAndRelease is the shared return/cancellation sequence: compute
// overdue charge, bill if positive, terminate, archive, promote. Billing
// happens strictly before termination so no transaction ever closes with
// unsettled debt.
func (e *LendingEngine) settleAndRelease(ctx context.Context, c *catalog.Copy) error {
	cur := c.Current()
	a, ok := e.accounts[cur.Username()]
	if !ok {
		return errs.Mark(errs.Newf("no account for borrower %s", cur.Username()), ErrInvariantViolation)
	}

	now := e.clock.Now()
	charge, daysOverdue := e.policy.OverdueCharge(c, now)
	if charge.IsPositive() {
		if err := e.commitFine(ctx, a, charge, c.Key(), daysOverdue, now); err != nil {
			return err
		}
	}

	wasReserved := cur.IsReserved()
	if err := cur.Terminate(now); err != nil {
		return errs.Mark(err, ErrInvariantViolation)
	}
	if err := c.Archive(); err != nil {
		return errs.Mark(err, ErrInvariantViolation)
	}
	if wasReserved {
		a.RemoveReserved(c.Key())
	} else {
		a.RemoveBorrowed(c.Key())
	}

	if err := e.store.UpdateTransaction(ctx, cur); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("copy released",
		"username", cur.Username(),
		"copy", c.Key().String(),
		"reserved", wasReserved,
		"charge_cents", charge.Cents(),
	)

	r, ok := e.resources[c.Key().ResourceID]
	if !ok {
		return errs.Mark(errs.Newf("no resource %s for copy", c.Key().ResourceID), ErrInvariantViolation)
	}
	return e.promoteNext(ctx, r)
}

// ------------------ request queue ------------------

// Request enqueues a user for the resource's next free copy. Calling it
// again while the request is outstanding is a no-op. Holding a
// reservation of the resource does not block a new request; only
// duplicate requests do.
func (e *LendingEngine) Request(ctx context.Context, resourceID, username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	r, ok := e.resources[resourceID]
	if !ok {
		return ErrResourceNotFound
	}
	if r.Queue().Contains(username) {
		return nil
	}
	if err := a.AddRequest(resourceID); err != nil {
		return errs.Mark(err, ErrInvariantViolation)
	}
	r.Queue().Enqueue(username)
	if err := e.store.SaveRequest(ctx, resourceID, username); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	return nil
}

// CancelRequest removes the user from the queue if present, then
// re-evaluates promotion for the resource.
func (e *LendingEngine) CancelRequest(ctx context.Context, resourceID, username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.resources[resourceID]
	if !ok {
		return ErrResourceNotFound
	}
	if r.Queue().Remove(username) {
		if a, ok := e.accounts[username]; ok {
			a.RemoveRequest(resourceID)
			if err := e.store.UpdateAccount(ctx, a); err != nil {
				return errs.Mark(err, ErrStoreFailure)
			}
		}
		if err := e.store.DeleteRequest(ctx, resourceID, username); err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
	}
	return e.promoteNext(ctx, r)
}

// promoteNext pops the front requester and reserves a free copy for
// them. With no waiting user or no free copy it leaves everything
// untouched. Strictly FIFO.
func (e *LendingEngine) promoteNext(ctx context.Context, r *catalog.Resource) error {
	front, ok := r.Queue().Peek()
	if !ok {
		return nil
	}
	c, ok := r.FreeCopy()
	if !ok {
		return nil
	}

	r.Queue().Pop()
	a, ok := e.accounts[front]
	if !ok {
		return errs.Mark(errs.Newf("queued user %s has no account", front), ErrInvariantViolation)
	}
	a.RemoveRequest(r.ID())
	if err := e.store.DeleteRequest(ctx, r.ID(), front); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	if _, err := e.reserveLocked(ctx, c.Key(), front); err != nil {
		return err
	}
	e.logger.Info("request promoted", "username", front, "copy", c.Key().String())
	return nil
}

// ------------------ billing ------------------

// AddFine appends a fine entry and decreases the user's balance.
// Negative amounts are a contract violation, not user input.
func (e *LendingEngine) AddFine(ctx context.Context, username string, amountCents int64, key catalog.CopyKey, daysOverdue int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	amount, err := ledger.NewAmount(amountCents)
	if err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	return e.commitFine(ctx, a, amount, key, daysOverdue, e.clock.Now())
}

func (e *LendingEngine) commitFine(ctx context.Context, a *account.Account, amount ledger.Money, key catalog.CopyKey, daysOverdue int, at time.Time) error {
	fine, err := ledger.NewFine(e.store.NextTransactionID(), a.Username().Value(), amount, key.ResourceID, key.Number, daysOverdue, at)
	if err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	a.Apply(fine)
	e.journal = append(e.journal, fine)
	if err := e.store.SaveEntry(ctx, fine); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("fine committed",
		"username", a.Username().Value(),
		"copy", key.String(),
		"amount_cents", amount.Cents(),
		"days_overdue", daysOverdue,
	)
	return nil
}

// MakePayment appends a payment entry and increases the user's balance.
func (e *LendingEngine) MakePayment(ctx context.Context, username string, amountCents int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	amount, err := ledger.NewAmount(amountCents)
	if err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	payment, err := ledger.NewPayment(e.store.NextTransactionID(), username, amount, e.clock.Now())
	if err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	a.Apply(payment)
	e.journal = append(e.journal, payment)
	if err := e.store.SaveEntry(ctx, payment); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("payment received", "username", username, "amount_cents", amount.Cents())
	return nil
}

// ------------------ role substitution ------------------

// PromoteStaff projects the account into its staff shape with the next
// sequential staff number.
func (e *LendingEngine) PromoteStaff(ctx context.Context, username string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.accounts[username]
	if !ok {
		return 0, ErrAccountNotFound
	}
	staffNumber, err := e.store.NextStaffNumber(ctx)
	if err != nil {
		return 0, errs.Mark(err, ErrStoreFailure)
	}
	if err := a.PromoteToStaff(staffNumber, e.clock.Now()); err != nil {
		return 0, errs.Mark(err, ErrDomainValidation)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return 0, errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("account promoted to staff", "username", username, "staff_number", staffNumber)
	return staffNumber, nil
}

func (e *LendingEngine) DemoteStaff(ctx context.Context, username string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	if err := a.DemoteToMember(); err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	if err := e.store.UpdateAccount(ctx, a); err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}
	e.logger.Info("account demoted to member", "username", username)
	return nil
}

// ------------------ helpers & read access ------------------

func (e *LendingEngine) findCopy(key catalog.CopyKey) (*catalog.Copy, error) {
	r, ok := e.resources[key.ResourceID]
	if !ok {
		return nil, ErrResourceNotFound
	}
	c, ok := r.Copy(key.Number)
	if !ok {
		return nil, ErrCopyNotFound
	}
	return c, nil
}

// Account returns the aggregate for reads. Callers must not mutate.
func (e *LendingEngine) Account(username string) (*account.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (e *LendingEngine) Accounts() []*account.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*account.Account, 0, len(e.accountOrder))
	for _, u := range e.accountOrder {
		out = append(out, e.accounts[u])
	}
	return out
}

func (e *LendingEngine) Resource(id string) (*catalog.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.resources[id]
	if !ok {
		return nil, ErrResourceNotFound
	}
	return r, nil
}

func (e *LendingEngine) Resources() []*catalog.Resource {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*catalog.Resource, 0, len(e.resourceOrder))
	for _, id := range e.resourceOrder {
		out = append(out, e.resources[id])
	}
	return out
}

func (e *LendingEngine) Entries() []*ledger.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*ledger.Entry, len(e.journal))
	copy(out, e.journal)
	return out
}

func (e *LendingEngine) DaysUntilDue(key catalog.CopyKey) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.findCopy(key)
	if err != nil {
		return 0, err
	}
	return e.policy.DaysUntilDue(c, e.clock.Now()), nil
}
