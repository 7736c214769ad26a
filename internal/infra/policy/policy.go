package policy

import (
	"time"

	"libcirc/internal/domain/catalog"
	"libcirc/internal/domain/ledger"
	"libcirc/internal/pkg/config"
)

// FixedTermPolicy is the default due-date collaborator: every loan or
// hold is due a fixed number of days after its start, and each whole day
// past due accrues a flat charge.
type FixedTermPolicy struct {
	loanPeriodDays int
	dailyFineCents int64
}

func NewFixedTermPolicy(cfg config.LendingConfig) *FixedTermPolicy {
	return &FixedTermPolicy{
		loanPeriodDays: cfg.LoanPeriodDays,
		dailyFineCents: cfg.DailyFineCents,
	}
}

func (p *FixedTermPolicy) dueAt(c *catalog.Copy) (time.Time, bool) {
	cur := c.Current()
	if cur == nil || !cur.IsActive() {
		return time.Time{}, false
	}
	return cur.StartedAt().AddDate(0, 0, p.loanPeriodDays), true
}

// OverdueCharge returns the accrued charge and whole days overdue,
// both clamped to zero when the copy is not overdue.
func (p *FixedTermPolicy) OverdueCharge(c *catalog.Copy, now time.Time) (ledger.Money, int) {
	due, ok := p.dueAt(c)
	if !ok || !now.After(due) {
		return ledger.NewMoney(0), 0
	}
	days := int(now.Sub(due).Hours() / 24)
	if days <= 0 {
		return ledger.NewMoney(0), 0
	}
	return ledger.NewMoney(int64(days) * p.dailyFineCents), days
}

// DaysUntilDue is signed: negative means overdue.
func (p *FixedTermPolicy) DaysUntilDue(c *catalog.Copy, now time.Time) int {
	due, ok := p.dueAt(c)
	if !ok {
		return 0
	}
	hours := due.Sub(now).Hours()
	if hours < 0 {
		return -int(-hours / 24)
	}
	return int(hours / 24)
}
