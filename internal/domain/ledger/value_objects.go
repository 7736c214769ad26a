package ledger

import (
	"errors"
	"fmt"
)

var ErrNegativeAmount = errors.New("amount cannot be negative")

// Money is an integer-cent monetary value. Balances may go negative;
// fine and payment amounts may not.
type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

// NewAmount validates the non-negative contract shared by fines and payments.
func NewAmount(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: cents}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Dollars() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

func (m Money) Sub(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

func (m Money) Negate() Money {
	return Money{cents: -m.cents}
}

func (m Money) IsNegative() bool {
	return m.cents < 0
}

func (m Money) IsPositive() bool {
	return m.cents > 0
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

func (m Money) String() string {
	sign := ""
	cents := m.cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
