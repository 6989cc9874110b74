package allocation_test

import (
	"testing"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/allocation"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredit(id string, total, paid int64, date time.Time) domain.Credit {
	c := domain.Credit{
		CreditID:    id,
		CustomerID:  "cust-1",
		CreditDate:  date,
		TotalAmount: decimal.NewFromInt(total),
		PaidAmount:  decimal.NewFromInt(paid),
	}
	c.Recalculate()
	return c
}

func TestRecordPayment(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("partial payment", func(t *testing.T) {
		credit := newCredit("c1", 1000, 0, base)
		updated, err := allocation.RecordPayment(credit, domain.PaymentRecord{
			PaymentID:   "p1",
			Amount:      decimal.NewFromInt(400),
			PaymentDate: base.AddDate(0, 0, 7),
		})
		require.NoError(t, err)

		assert.True(t, updated.PaidAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, updated.RemainingAmount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, domain.StatusPartiallyPaid, updated.Status)
		require.Len(t, updated.Payments, 1)
		assert.True(t, updated.Payments[0].RemainingAfterPayment.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, "c1", updated.Payments[0].CreditID)
	})

	t.Run("payment settles the credit", func(t *testing.T) {
		credit := newCredit("c1", 1000, 400, base)
		updated, err := allocation.RecordPayment(credit, domain.PaymentRecord{
			PaymentID: "p2",
			Amount:    decimal.NewFromInt(600),
		})
		require.NoError(t, err)

		assert.True(t, updated.PaidAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, updated.RemainingAmount.IsZero())
		assert.Equal(t, domain.StatusPaid, updated.Status)
	})

	t.Run("overpayment floors remaining at zero", func(t *testing.T) {
		credit := newCredit("c1", 500, 300, base)
		updated, err := allocation.RecordPayment(credit, domain.PaymentRecord{
			PaymentID: "p3",
			Amount:    decimal.NewFromInt(400),
		})
		require.NoError(t, err)

		assert.True(t, updated.PaidAmount.Equal(decimal.NewFromInt(700)))
		assert.True(t, updated.RemainingAmount.IsZero())
		assert.Equal(t, domain.StatusPaid, updated.Status)
		assert.True(t, updated.Payments[0].RemainingAfterPayment.IsZero())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		credit := newCredit("c1", 1000, 0, base)
		for _, amount := range []int64{0, -50} {
			_, err := allocation.RecordPayment(credit, domain.PaymentRecord{
				Amount: decimal.NewFromInt(amount),
			})
			assert.ErrorIs(t, err, allocation.ErrInvalidAmount)
		}
	})

	t.Run("does not mutate the input credit", func(t *testing.T) {
		credit := newCredit("c1", 1000, 0, base)
		_, err := allocation.RecordPayment(credit, domain.PaymentRecord{
			PaymentID: "p1",
			Amount:    decimal.NewFromInt(100),
		})
		require.NoError(t, err)

		assert.True(t, credit.PaidAmount.IsZero())
		assert.Empty(t, credit.Payments)
	})

	t.Run("appends to existing history", func(t *testing.T) {
		credit := newCredit("c1", 1000, 200, base)
		credit.Payments = []domain.PaymentRecord{{PaymentID: "p1", Amount: decimal.NewFromInt(200)}}

		updated, err := allocation.RecordPayment(credit, domain.PaymentRecord{
			PaymentID: "p2",
			Amount:    decimal.NewFromInt(300),
		})
		require.NoError(t, err)
		require.Len(t, updated.Payments, 2)
		assert.Equal(t, "p2", updated.Payments[1].PaymentID)
		// Last record's snapshot matches the credit's current remaining balance.
		assert.True(t, updated.Payments[1].RemainingAfterPayment.Equal(updated.RemainingAmount))
	})
}

func TestAllocate(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	oldest := newCredit("old", 500, 0, base)
	newest := newCredit("new", 300, 0, base.AddDate(0, 1, 0))

	t.Run("splits across credits oldest first", func(t *testing.T) {
		entries, err := allocation.Allocate(decimal.NewFromInt(600), []domain.Credit{newest, oldest}, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "old", entries[0].CreditID)
		assert.True(t, entries[0].AmountToBePaid.Equal(decimal.NewFromInt(500)))
		assert.True(t, entries[0].NewRemaining.IsZero())
		assert.Equal(t, allocation.FullyPaid, entries[0].Status)

		assert.Equal(t, "new", entries[1].CreditID)
		assert.True(t, entries[1].AmountToBePaid.Equal(decimal.NewFromInt(100)))
		assert.True(t, entries[1].NewRemaining.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, allocation.PartialPayment, entries[1].Status)
	})

	t.Run("exact outstanding settles everything", func(t *testing.T) {
		entries, err := allocation.Allocate(decimal.NewFromInt(800), []domain.Credit{oldest, newest}, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, allocation.FullyPaid, e.Status)
			assert.True(t, e.NewRemaining.IsZero())
		}
	})

	t.Run("oldest-first exhaustion leaves newer credits untouched", func(t *testing.T) {
		entries, err := allocation.Allocate(decimal.NewFromInt(200), []domain.Credit{newest, oldest}, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.True(t, entries[0].AmountToBePaid.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, allocation.PartialPayment, entries[0].Status)
		assert.True(t, entries[1].AmountToBePaid.IsZero())
		assert.Equal(t, allocation.NoChange, entries[1].Status)
	})

	t.Run("conservation of the lump sum", func(t *testing.T) {
		credits := []domain.Credit{
			newCredit("a", 120, 20, base),
			newCredit("b", 75, 0, base.AddDate(0, 0, 3)),
			newCredit("c", 900, 850, base.AddDate(0, 0, 5)),
		}
		lump := decimal.NewFromInt(130)
		entries, err := allocation.Allocate(lump, credits, nil)
		require.NoError(t, err)

		allocated := decimal.Zero
		for _, e := range entries {
			allocated = allocated.Add(e.AmountToBePaid)
			assert.True(t, e.NewRemaining.Equal(e.CurrentRemaining.Sub(e.AmountToBePaid)))
		}
		assert.True(t, allocated.Equal(lump))
	})

	t.Run("rejects lump sum above total outstanding", func(t *testing.T) {
		_, err := allocation.Allocate(decimal.NewFromInt(900), []domain.Credit{oldest, newest}, nil)
		assert.ErrorIs(t, err, allocation.ErrExceedsOutstanding)
	})

	t.Run("rejects zero and negative lump sums", func(t *testing.T) {
		for _, amount := range []int64{0, -10} {
			_, err := allocation.Allocate(decimal.NewFromInt(amount), []domain.Credit{oldest}, nil)
			assert.ErrorIs(t, err, allocation.ErrInvalidAmount)
		}
	})

	t.Run("no eligible credits is a no-op", func(t *testing.T) {
		paid := newCredit("done", 100, 100, base)
		entries, err := allocation.Allocate(decimal.NewFromInt(50), []domain.Credit{paid}, nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("skips settled credits in a mixed set", func(t *testing.T) {
		paid := newCredit("done", 100, 100, base.AddDate(0, -1, 0))
		entries, err := allocation.Allocate(decimal.NewFromInt(100), []domain.Credit{paid, oldest}, nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "old", entries[0].CreditID)
	})

	t.Run("deterministic over identical inputs", func(t *testing.T) {
		credits := []domain.Credit{newest, oldest}
		first, err := allocation.Allocate(decimal.NewFromInt(600), credits, nil)
		require.NoError(t, err)
		second, err := allocation.Allocate(decimal.NewFromInt(600), credits, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("does not mutate input credits", func(t *testing.T) {
		credits := []domain.Credit{newest, oldest}
		_, err := allocation.Allocate(decimal.NewFromInt(600), credits, nil)
		require.NoError(t, err)
		assert.Equal(t, "new", credits[0].CreditID)
		assert.True(t, credits[0].RemainingAmount.Equal(decimal.NewFromInt(300)))
		assert.True(t, credits[1].RemainingAmount.Equal(decimal.NewFromInt(500)))
	})

	t.Run("smallest-first policy", func(t *testing.T) {
		big := newCredit("big", 1000, 0, base)
		small := newCredit("small", 50, 0, base.AddDate(0, 2, 0))
		entries, err := allocation.Allocate(decimal.NewFromInt(60), []domain.Credit{big, small}, allocation.SmallestFirst)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "small", entries[0].CreditID)
		assert.Equal(t, allocation.FullyPaid, entries[0].Status)
		assert.True(t, entries[1].AmountToBePaid.Equal(decimal.NewFromInt(10)))
	})
}
