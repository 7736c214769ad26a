package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/infra/memstore"
	"libcirc/internal/infra/policy"
	"libcirc/internal/pkg/clock"
	"libcirc/internal/pkg/config"
	"libcirc/internal/usecase/commands"

	"github.com/stretchr/testify/suite"
)

var testStart = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

type LendingEngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	engine *commands.LendingEngine
	store  *memstore.Store
	clock  *clock.MockClock
}

func (s *LendingEngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.clock = clock.NewMockClock(testStart)

	cfg := config.NewTestConfig()
	duePolicy := policy.NewFixedTermPolicy(cfg.Lending)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := commands.NewLendingEngine(s.ctx, s.store, duePolicy, s.clock, logger)
	s.Require().NoError(err)
	s.engine = engine
}

// seedLibrary registers the given users and one resource R1 with n copies.
func (s *LendingEngineTestSuite) seedLibrary(copies int, usernames ...string) {
	for _, u := range usernames {
		_, err := s.engine.RegisterAccount(s.ctx, u)
		s.Require().NoError(err)
	}
	_, err := s.engine.AddResource(s.ctx, "R1", "Dune", "Frank Herbert")
	s.Require().NoError(err)
	for i := 0; i < copies; i++ {
		_, err := s.engine.AddCopy(s.ctx, "R1")
		s.Require().NoError(err)
	}
}

func (s *LendingEngineTestSuite) copyStatus(key catalog.CopyKey) catalog.CopyStatus {
	r, err := s.engine.Resource(key.ResourceID)
	s.Require().NoError(err)
	c, ok := r.Copy(key.Number)
	s.Require().True(ok)
	return c.Status()
}

func (s *LendingEngineTestSuite) balanceCents(username string) int64 {
	a, err := s.engine.Account(username)
	s.Require().NoError(err)
	return a.Balance().Cents()
}

var c1 = catalog.CopyKey{ResourceID: "R1", Number: 1}

func (s *LendingEngineTestSuite) TestIssueToUserInGoodStanding() {
	s.seedLibrary(1, "alice")

	tx, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	s.True(tx.IsActive())
	s.False(tx.IsReserved())
	s.Equal(catalog.StatusHeld, s.copyStatus(c1))

	a, err := s.engine.Account("alice")
	s.Require().NoError(err)
	s.Equal([]catalog.CopyKey{c1}, a.Borrowed())
}

func (s *LendingEngineTestSuite) TestIssueBlockedByDebt() {
	s.seedLibrary(1, "alice")
	s.Require().NoError(s.engine.AddFine(s.ctx, "alice", 500, c1, 5))
	s.Require().Equal(int64(-500), s.balanceCents("alice"))

	txCountBefore := len(s.store.Transactions())

	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().ErrorIs(err, commands.ErrInsufficientFunds)

	// atomic failure: no transaction created, copy untouched
	s.Equal(catalog.StatusAvailable, s.copyStatus(c1))
	s.Len(s.store.Transactions(), txCountBefore)
}

func (s *LendingEngineTestSuite) TestIssueOnBusyCopyIsContractViolation() {
	s.seedLibrary(1, "alice", "bob")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	_, err = s.engine.Issue(s.ctx, "bob", c1)
	s.Require().ErrorIs(err, commands.ErrInvariantViolation)
}

func (s *LendingEngineTestSuite) TestReserveAndFulfillHold() {
	s.seedLibrary(1, "alice")

	held, err := s.engine.Reserve(s.ctx, c1, "alice")
	s.Require().NoError(err)
	s.True(held.IsReserved())
	s.Equal(catalog.StatusReserved, s.copyStatus(c1))

	// picking up the hold converts the same transaction into a loan
	tx, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)
	s.Equal(held.ID(), tx.ID())
	s.False(tx.IsReserved())
	s.Equal(catalog.StatusHeld, s.copyStatus(c1))

	a, err := s.engine.Account("alice")
	s.Require().NoError(err)
	s.Empty(a.Reserved())
	s.Equal([]catalog.CopyKey{c1}, a.Borrowed())
}

func (s *LendingEngineTestSuite) TestReserveUnavailableCopy() {
	s.seedLibrary(1, "alice", "bob")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	_, err = s.engine.Reserve(s.ctx, c1, "bob")
	s.Require().ErrorIs(err, commands.ErrCopyUnavailable)
}

func (s *LendingEngineTestSuite) TestReturnOnTime() {
	s.seedLibrary(1, "alice")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	s.clock.AdvanceDays(7)
	s.Require().NoError(s.engine.Return(s.ctx, c1))

	s.Equal(catalog.StatusAvailable, s.copyStatus(c1))
	s.Equal(int64(0), s.balanceCents("alice"))
	s.Empty(s.engine.Entries())

	r, err := s.engine.Resource("R1")
	s.Require().NoError(err)
	c, _ := r.Copy(1)
	s.Require().Len(c.History(), 1)
	s.False(c.History()[0].IsActive())
}

func (s *LendingEngineTestSuite) TestOverdueReturnCommitsFine() {
	s.seedLibrary(1, "alice")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	// loan period is 14 days; come back 10 days late
	s.clock.AdvanceDays(24)
	s.Require().NoError(s.engine.Return(s.ctx, c1))

	s.Equal(int64(-250), s.balanceCents("alice"))

	entries := s.engine.Entries()
	s.Require().Len(entries, 1)
	fine := entries[0]
	s.Equal(ledger.KindFine, fine.Kind())
	s.Equal(int64(250), fine.Amount().Cents())
	resourceID, number, daysOverdue, ok := fine.Fine()
	s.Require().True(ok)
	s.Equal("R1", resourceID)
	s.Equal(1, number)
	s.Equal(10, daysOverdue)

	// the fine reached the store before the transaction closed
	s.Require().Len(s.store.Entries(), 1)
}

func (s *LendingEngineTestSuite) TestReturnWithoutActiveTransaction() {
	s.seedLibrary(1, "alice")
	err := s.engine.Return(s.ctx, c1)
	s.Require().ErrorIs(err, commands.ErrInvariantViolation)
}

func (s *LendingEngineTestSuite) TestBalanceConservation() {
	s.seedLibrary(1, "alice")

	before := s.balanceCents("alice")
	s.Require().NoError(s.engine.AddFine(s.ctx, "alice", 175, c1, 7))
	s.Equal(before-175, s.balanceCents("alice"))

	before = s.balanceCents("alice")
	s.Require().NoError(s.engine.MakePayment(s.ctx, "alice", 300))
	s.Equal(before+300, s.balanceCents("alice"))
}

func (s *LendingEngineTestSuite) TestRequestIsIdempotent() {
	s.seedLibrary(1, "alice", "bob")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	s.Require().NoError(s.engine.Request(s.ctx, "R1", "bob"))
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "bob"))

	r, err := s.engine.Resource("R1")
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, r.Queue().Usernames())

	b, err := s.engine.Account("bob")
	s.Require().NoError(err)
	s.Equal([]string{"R1"}, b.Requested())
}

func (s *LendingEngineTestSuite) TestReturnPromotesFirstRequester() {
	s.seedLibrary(1, "alice", "bob", "carol")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	s.Require().NoError(s.engine.Request(s.ctx, "R1", "bob"))
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "carol"))

	s.Require().NoError(s.engine.Return(s.ctx, c1))

	// bob, not carol, now holds a reserved copy
	s.Equal(catalog.StatusReserved, s.copyStatus(c1))
	b, err := s.engine.Account("bob")
	s.Require().NoError(err)
	s.Equal([]catalog.CopyKey{c1}, b.Reserved())
	s.Empty(b.Requested())

	r, err := s.engine.Resource("R1")
	s.Require().NoError(err)
	s.Equal([]string{"carol"}, r.Queue().Usernames())
}

func (s *LendingEngineTestSuite) TestRequestWhileQueueBlockedWithoutFreeCopy() {
	s.seedLibrary(1, "alice", "bob")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "bob"))

	// no free copy: queue must stay as it is
	r, err := s.engine.Resource("R1")
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, r.Queue().Usernames())
	s.Equal(catalog.StatusHeld, s.copyStatus(c1))
}

func (s *LendingEngineTestSuite) TestCancelRequestReevaluatesPromotion() {
	s.seedLibrary(1, "alice", "bob", "carol")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "bob"))
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "carol"))

	s.Require().NoError(s.engine.CancelRequest(s.ctx, "R1", "bob"))

	r, err := s.engine.Resource("R1")
	s.Require().NoError(err)
	s.Equal([]string{"carol"}, r.Queue().Usernames())

	// once the copy frees up, carol is next
	s.Require().NoError(s.engine.Return(s.ctx, c1))
	c, err := s.engine.Account("carol")
	s.Require().NoError(err)
	s.Equal([]catalog.CopyKey{c1}, c.Reserved())
}

func (s *LendingEngineTestSuite) TestCancelReservationPromotesLikeAReturn() {
	s.seedLibrary(1, "alice", "dave")

	_, err := s.engine.Reserve(s.ctx, c1, "alice")
	s.Require().NoError(err)
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "dave"))

	s.Require().NoError(s.engine.CancelReservation(s.ctx, c1))

	// no overdue charge, so no fine record
	s.Empty(s.engine.Entries())
	s.Equal(int64(0), s.balanceCents("alice"))

	// the freed copy goes straight to the next requester
	s.Equal(catalog.StatusReserved, s.copyStatus(c1))
	d, err := s.engine.Account("dave")
	s.Require().NoError(err)
	s.Equal([]catalog.CopyKey{c1}, d.Reserved())
}

func (s *LendingEngineTestSuite) TestCancelReservationOnHeldCopy() {
	s.seedLibrary(1, "alice")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	err = s.engine.CancelReservation(s.ctx, c1)
	s.Require().ErrorIs(err, commands.ErrInvariantViolation)
}

func (s *LendingEngineTestSuite) TestArchivalPreservesImmutableFields() {
	s.seedLibrary(1, "alice")
	tx, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)

	id, username, startedAt := tx.ID(), tx.Username(), tx.StartedAt()

	s.clock.AdvanceDays(3)
	s.Require().NoError(s.engine.Return(s.ctx, c1))

	r, err := s.engine.Resource("R1")
	s.Require().NoError(err)
	c, _ := r.Copy(1)
	s.Require().Len(c.History(), 1)
	archived := c.History()[0]

	s.Equal(id, archived.ID())
	s.Equal(username, archived.Username())
	s.Equal("R1", archived.ResourceID())
	s.Equal(1, archived.CopyNumber())
	s.Equal(startedAt, archived.StartedAt())
}

func (s *LendingEngineTestSuite) TestRegisterDuplicateUsername() {
	s.seedLibrary(0, "alice")
	_, err := s.engine.RegisterAccount(s.ctx, "alice")
	s.Require().ErrorIs(err, commands.ErrDuplicateIdentity)
}

func (s *LendingEngineTestSuite) TestStaffPromotionAssignsSequentialNumbers() {
	s.seedLibrary(0, "alice", "bob")

	first, err := s.engine.PromoteStaff(s.ctx, "alice")
	s.Require().NoError(err)
	second, err := s.engine.PromoteStaff(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(first+1, second)

	s.Require().NoError(s.engine.DemoteStaff(s.ctx, "alice"))
	a, err := s.engine.Account("alice")
	s.Require().NoError(err)
	s.False(a.Role().IsStaff())
}

func (s *LendingEngineTestSuite) TestAddCopySatisfiesWaitingRequest() {
	s.seedLibrary(1, "alice", "bob")
	_, err := s.engine.Issue(s.ctx, "alice", c1)
	s.Require().NoError(err)
	s.Require().NoError(s.engine.Request(s.ctx, "R1", "bob"))

	// a brand new copy frees capacity and promotes bob immediately
	key, err := s.engine.AddCopy(s.ctx, "R1")
	s.Require().NoError(err)
	s.Equal(catalog.StatusReserved, s.copyStatus(key))

	b, err := s.engine.Account("bob")
	s.Require().NoError(err)
	s.Equal([]catalog.CopyKey{key}, b.Reserved())
}

func TestLendingEngineSuite(t *testing.T) {
	suite.Run(t, new(LendingEngineTestSuite))
}
