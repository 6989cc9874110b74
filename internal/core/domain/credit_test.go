package domain_test

import (
	"testing"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		paid  int64
		want  domain.CreditStatus
	}{
		{"nothing paid", 1000, 0, domain.StatusUnpaid},
		{"negative paid treated as unpaid", 1000, -5, domain.StatusUnpaid},
		{"partially paid", 1000, 400, domain.StatusPartiallyPaid},
		{"one birr short", 1000, 999, domain.StatusPartiallyPaid},
		{"exactly paid", 1000, 1000, domain.StatusPaid},
		{"overpaid clamps to paid", 1000, 1200, domain.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.DeriveStatus(decimal.NewFromInt(tt.total), decimal.NewFromInt(tt.paid))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemainingBalance(t *testing.T) {
	assert.True(t, domain.RemainingBalance(decimal.NewFromInt(100), decimal.NewFromInt(40)).Equal(decimal.NewFromInt(60)))
	// Floored at zero, never negative.
	assert.True(t, domain.RemainingBalance(decimal.NewFromInt(100), decimal.NewFromInt(150)).IsZero())
}

func TestCreditRecalculate(t *testing.T) {
	c := domain.Credit{
		TotalAmount: decimal.NewFromInt(500),
		PaidAmount:  decimal.NewFromInt(200),
	}
	c.Recalculate()
	assert.True(t, c.RemainingAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, domain.StatusPartiallyPaid, c.Status)
	assert.True(t, c.IsEligibleForPayment())

	c.PaidAmount = decimal.NewFromInt(600)
	c.Recalculate()
	assert.True(t, c.RemainingAmount.IsZero())
	assert.Equal(t, domain.StatusPaid, c.Status)
	assert.False(t, c.IsEligibleForPayment())
}
