package domain

import (
	"math"    // Finite checks
	"strconv" // Bounded float parsing
	"strings" // Input trimming

	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// ParseAmount converts a submitted form value into an amount.
// Only finite, strictly positive numbers with at most two decimals are accepted.
func ParseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !finite(amount) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(amount)
	if !d.Equal(d.Round(2)) {
		return 0, ErrInvalidAmount // Finer than a cent
	}
	return amount, nil
}

// Credit returns balance increased by amount. There is no upper bound.
func Credit(balance, amount float64) (float64, error) {
	b, a, err := operands(balance, amount)
	if err != nil {
		return balance, err
	}
	next := b.Add(a).InexactFloat64()
	if math.IsInf(next, 0) {
		return balance, ErrInvalidAmount
	}
	return next, nil
}

// Debit returns balance decreased by amount, or ErrInsufficientBalance
// when that would leave the balance below zero.
func Debit(balance, amount float64) (float64, error) {
	b, a, err := operands(balance, amount)
	if err != nil {
		return balance, err
	}
	if a.GreaterThan(b) {
		return balance, ErrInsufficientBalance
	}
	return b.Sub(a).InexactFloat64(), nil
}

// FormatAmount renders an amount with two decimals for display
func FormatAmount(amount float64) string {
	if !finite(amount) {
		return "0.00"
	}
	return decimal.NewFromFloat(amount).StringFixed(2)
}

func operands(balance, amount float64) (decimal.Decimal, decimal.Decimal, error) {
	if !finite(amount) || amount <= 0 {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	if !finite(balance) {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(balance), decimal.NewFromFloat(amount), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
