package policy_test

import (
	"testing"
	"time"

	"libcirc/internal/domain/catalog"
	"libcirc/internal/infra/policy"
	"libcirc/internal/pkg/config"
	"libcirc/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func issuedCopy(t *testing.T) *catalog.Copy {
	t.Helper()
	key := catalog.CopyKey{ResourceID: "R1", Number: 1}
	c := catalog.NewCopy(key)
	require.NoError(t, c.Begin(builder.NewActiveLoan("alice", key, issuedAt)))
	return c
}

func TestOverdueCharge(t *testing.T) {
	p := policy.NewFixedTermPolicy(config.LendingConfig{LoanPeriodDays: 14, DailyFineCents: 25})

	cases := []struct {
		name      string
		at        time.Time
		wantCents int64
		wantDays  int
	}{
		{name: "on loan day", at: issuedAt, wantCents: 0, wantDays: 0},
		{name: "within period", at: issuedAt.AddDate(0, 0, 7), wantCents: 0, wantDays: 0},
		{name: "on due date", at: issuedAt.AddDate(0, 0, 14), wantCents: 0, wantDays: 0},
		{name: "ten days late", at: issuedAt.AddDate(0, 0, 24), wantCents: 250, wantDays: 10},
		{name: "one day late", at: issuedAt.AddDate(0, 0, 15), wantCents: 25, wantDays: 1},
		{name: "partial day late", at: issuedAt.AddDate(0, 0, 14).Add(6 * time.Hour), wantCents: 0, wantDays: 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			charge, days := p.OverdueCharge(issuedCopy(t), c.at)
			assert.Equal(t, c.wantCents, charge.Cents())
			assert.Equal(t, c.wantDays, days)
		})
	}
}

func TestOverdueChargeOnAvailableCopy(t *testing.T) {
	p := policy.NewFixedTermPolicy(config.LendingConfig{LoanPeriodDays: 14, DailyFineCents: 25})
	c := catalog.NewCopy(catalog.CopyKey{ResourceID: "R1", Number: 1})

	charge, days := p.OverdueCharge(c, issuedAt.AddDate(0, 1, 0))
	assert.True(t, charge.IsZero())
	assert.Equal(t, 0, days)
}

func TestDaysUntilDue(t *testing.T) {
	p := policy.NewFixedTermPolicy(config.LendingConfig{LoanPeriodDays: 14, DailyFineCents: 25})

	assert.Equal(t, 14, p.DaysUntilDue(issuedCopy(t), issuedAt))
	assert.Equal(t, 7, p.DaysUntilDue(issuedCopy(t), issuedAt.AddDate(0, 0, 7)))
	assert.Equal(t, -10, p.DaysUntilDue(issuedCopy(t), issuedAt.AddDate(0, 0, 24)))
	assert.Equal(t, 0, p.DaysUntilDue(catalog.NewCopy(catalog.CopyKey{ResourceID: "R1", Number: 1}), issuedAt))
}
