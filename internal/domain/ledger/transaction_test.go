package ledger_test

import (
	"testing"
	"time"

	"libcirc/internal/domain/ledger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func TestTransactionLifecycle(t *testing.T) {
	t.Run("loan is active until terminated", func(t *testing.T) {
		tx := ledger.NewLoan(uuid.New(), "alice", "R1", 1, start)
		require.True(t, tx.IsActive())
		assert.False(t, tx.IsReserved())
		assert.Nil(t, tx.ReturnedAt())

		returnedAt := start.AddDate(0, 0, 7)
		require.NoError(t, tx.Terminate(returnedAt))
		assert.False(t, tx.IsActive())
		require.NotNil(t, tx.ReturnedAt())
		assert.Equal(t, returnedAt, *tx.ReturnedAt())
	})

	t.Run("terminating twice fails", func(t *testing.T) {
		tx := ledger.NewLoan(uuid.New(), "alice", "R1", 1, start)
		require.NoError(t, tx.Terminate(start.AddDate(0, 0, 1)))
		require.ErrorIs(t, tx.Terminate(start.AddDate(0, 0, 2)), ledger.ErrTransactionTerminal)
	})

	t.Run("identity fields survive termination", func(t *testing.T) {
		id := uuid.New()
		tx := ledger.NewHold(id, "bob", "R2", 3, start)
		require.NoError(t, tx.Terminate(start.AddDate(0, 0, 1)))

		assert.Equal(t, id, tx.ID())
		assert.Equal(t, "bob", tx.Username())
		assert.Equal(t, "R2", tx.ResourceID())
		assert.Equal(t, 3, tx.CopyNumber())
		assert.Equal(t, start, tx.StartedAt())
	})
}

func TestFulfillHold(t *testing.T) {
	t.Run("reserved flag flips exactly once", func(t *testing.T) {
		tx := ledger.NewHold(uuid.New(), "alice", "R1", 1, start)
		require.True(t, tx.IsReserved())

		require.NoError(t, tx.FulfillHold())
		assert.False(t, tx.IsReserved())

		// second flip is a contract violation, not a no-op
		require.ErrorIs(t, tx.FulfillHold(), ledger.ErrNotReservation)
	})

	t.Run("plain loan cannot be fulfilled", func(t *testing.T) {
		tx := ledger.NewLoan(uuid.New(), "alice", "R1", 1, start)
		require.ErrorIs(t, tx.FulfillHold(), ledger.ErrNotReservation)
	})

	t.Run("terminal hold cannot be fulfilled", func(t *testing.T) {
		tx := ledger.NewHold(uuid.New(), "alice", "R1", 1, start)
		require.NoError(t, tx.Terminate(start.AddDate(0, 0, 1)))
		require.ErrorIs(t, tx.FulfillHold(), ledger.ErrTransactionTerminal)
	})
}

func TestEntry(t *testing.T) {
	occurredAt := start.AddDate(0, 0, 20)

	t.Run("fine carries payload and negative delta", func(t *testing.T) {
		amount, err := ledger.NewAmount(250)
		require.NoError(t, err)
		fine, err := ledger.NewFine(uuid.New(), "alice", amount, "R1", 1, 10, occurredAt)
		require.NoError(t, err)

		assert.Equal(t, ledger.KindFine, fine.Kind())
		assert.Equal(t, int64(-250), fine.SignedDelta().Cents())
		resourceID, number, daysOverdue, ok := fine.Fine()
		require.True(t, ok)
		assert.Equal(t, "R1", resourceID)
		assert.Equal(t, 1, number)
		assert.Equal(t, 10, daysOverdue)
	})

	t.Run("payment has positive delta and no payload", func(t *testing.T) {
		amount, err := ledger.NewAmount(500)
		require.NoError(t, err)
		payment, err := ledger.NewPayment(uuid.New(), "alice", amount, occurredAt)
		require.NoError(t, err)

		assert.Equal(t, int64(500), payment.SignedDelta().Cents())
		_, _, _, ok := payment.Fine()
		assert.False(t, ok)
	})

	t.Run("negative amounts are rejected", func(t *testing.T) {
		_, err := ledger.NewAmount(-1)
		require.ErrorIs(t, err, ledger.ErrNegativeAmount)
	})

	t.Run("negative days overdue is rejected", func(t *testing.T) {
		_, err := ledger.NewFine(uuid.New(), "alice", ledger.NewMoney(100), "R1", 1, -1, occurredAt)
		require.ErrorIs(t, err, ledger.ErrNegativeDaysOverdue)
	})
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$2.50", ledger.NewMoney(250).String())
	assert.Equal(t, "-$0.25", ledger.NewMoney(-25).String())
	assert.Equal(t, 2.5, ledger.NewMoney(250).Dollars())
	assert.True(t, ledger.NewMoney(-1).IsNegative())
	assert.Equal(t, int64(75), ledger.NewMoney(100).Sub(ledger.NewMoney(25)).Cents())
}
