package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/allocation"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
)

func newTestProvider(t *testing.T) portsrepo.RepositoryProvider {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "dube-ledger-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store.NewRepositoryProvider()
}

func seedOwnerAndCustomer(t *testing.T, ctx context.Context, repos portsrepo.RepositoryProvider) (domain.User, domain.Customer) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: "seed", LastUpdatedAt: now, LastUpdatedBy: "seed"}

	owner := domain.User{
		UserID:       uuid.NewString(),
		Username:     "owner-" + uuid.NewString()[:8],
		PasswordHash: "not-a-real-hash",
		Name:         "Shop Owner",
		Email:        "owner@example.com",
		AuditFields:  audit,
	}
	require.NoError(t, repos.User.SaveUser(ctx, owner))

	customer := domain.Customer{
		CustomerID:  uuid.NewString(),
		OwnerUserID: owner.UserID,
		Name:        "Abebe Kebede",
		Phone:       "0911234567",
		AuditFields: audit,
	}
	require.NoError(t, repos.Customer.SaveCustomer(ctx, customer))

	return owner, customer
}

func newCredit(customerID string, total int64, creditDate time.Time) domain.Credit {
	audit := domain.AuditFields{CreatedAt: creditDate, CreatedBy: "seed", LastUpdatedAt: creditDate, LastUpdatedBy: "seed"}
	c := domain.Credit{
		CreditID:    uuid.NewString(),
		CustomerID:  customerID,
		Item:        "teff 25kg",
		CreditDate:  creditDate,
		TotalAmount: decimal.NewFromInt(total),
		PaidAmount:  decimal.Zero,
		AuditFields: audit,
	}
	c.Recalculate()
	return c
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	repos := newTestProvider(t)
	_, customer := seedOwnerAndCustomer(t, ctx, repos)

	t.Run("SaveCredit and FindCreditByID round trip", func(t *testing.T) {
		credit := newCredit(customer.CustomerID, 500, time.Now().UTC().Truncate(time.Second))
		credit.Images = []string{"img/receipt-1.jpg"}
		require.NoError(t, repos.Credit.SaveCredit(ctx, credit, nil))

		got, err := repos.Credit.FindCreditByID(ctx, credit.CreditID)
		require.NoError(t, err)
		require.Equal(t, credit.CreditID, got.CreditID)
		require.True(t, got.TotalAmount.Equal(decimal.NewFromInt(500)))
		require.True(t, got.RemainingAmount.Equal(decimal.NewFromInt(500)))
		require.Equal(t, domain.StatusUnpaid, got.Status)
		require.Equal(t, []string{"img/receipt-1.jpg"}, got.Images)
	})

	t.Run("SaveCredit with initial payment writes history", func(t *testing.T) {
		credit := newCredit(customer.CustomerID, 1000, time.Now().UTC().Truncate(time.Second))
		credit.PaidAmount = decimal.NewFromInt(200)
		credit.Recalculate()
		initial := domain.PaymentRecord{
			PaymentID:             uuid.NewString(),
			CreditID:              credit.CreditID,
			Amount:                decimal.NewFromInt(200),
			PaymentDate:           credit.CreditDate,
			RemainingAfterPayment: decimal.NewFromInt(800),
			Note:                  "down payment",
			AuditFields:           credit.AuditFields,
		}
		require.NoError(t, repos.Credit.SaveCredit(ctx, credit, &initial))

		payments, err := repos.Credit.FindPaymentsByCreditID(ctx, credit.CreditID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		require.True(t, payments[0].Amount.Equal(decimal.NewFromInt(200)))
		require.True(t, payments[0].RemainingAfterPayment.Equal(decimal.NewFromInt(800)))
	})

	t.Run("ListEligibleCreditsByCustomer skips settled credits", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		_, cust := seedOwnerAndCustomer(t, ctx, repos)

		now := time.Now().UTC().Truncate(time.Second)
		open := newCredit(cust.CustomerID, 300, now.Add(-24*time.Hour))
		settled := newCredit(cust.CustomerID, 100, now.Add(-48*time.Hour))
		settled.PaidAmount = decimal.NewFromInt(100)
		settled.Recalculate()
		require.NoError(t, repos.Credit.SaveCredit(ctx, open, nil))
		require.NoError(t, repos.Credit.SaveCredit(ctx, settled, nil))

		eligible, err := repos.Credit.ListEligibleCreditsByCustomer(ctx, cust.CustomerID)
		require.NoError(t, err)
		require.Len(t, eligible, 1)
		require.Equal(t, open.CreditID, eligible[0].CreditID)
	})

	t.Run("ApplyToCredits updates balances and history atomically", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		_, cust := seedOwnerAndCustomer(t, ctx, repos)

		now := time.Now().UTC().Truncate(time.Second)
		credit := newCredit(cust.CustomerID, 500, now)
		require.NoError(t, repos.Credit.SaveCredit(ctx, credit, nil))

		err := repos.Credit.ApplyToCredits(ctx, []string{credit.CreditID}, func(credits []domain.Credit) ([]domain.Credit, []domain.PaymentRecord, error) {
			require.Len(t, credits, 1)
			c := credits[0]
			c.PaidAmount = c.PaidAmount.Add(decimal.NewFromInt(200))
			c.Recalculate()
			payment := domain.PaymentRecord{
				PaymentID:             uuid.NewString(),
				CreditID:              c.CreditID,
				Amount:                decimal.NewFromInt(200),
				PaymentDate:           now,
				RemainingAfterPayment: c.RemainingAmount,
				AuditFields:           c.AuditFields,
			}
			return []domain.Credit{c}, []domain.PaymentRecord{payment}, nil
		})
		require.NoError(t, err)

		got, err := repos.Credit.FindCreditByID(ctx, credit.CreditID)
		require.NoError(t, err)
		require.True(t, got.PaidAmount.Equal(decimal.NewFromInt(200)))
		require.True(t, got.RemainingAmount.Equal(decimal.NewFromInt(300)))
		require.Equal(t, domain.StatusPartiallyPaid, got.Status)

		payments, err := repos.Credit.FindPaymentsByCreditID(ctx, credit.CreditID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
	})

	t.Run("ApplyToCredits rejects missing credits", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)

		err := repos.Credit.ApplyToCredits(ctx, []string{uuid.NewString()}, func(credits []domain.Credit) ([]domain.Credit, []domain.PaymentRecord, error) {
			t.Fatal("applier must not run for missing credits")
			return nil, nil, nil
		})
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("concurrent bulk payments never lose an update", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		_, cust := seedOwnerAndCustomer(t, ctx, repos)

		now := time.Now().UTC().Truncate(time.Second)
		credit := newCredit(cust.CustomerID, 1000, now)
		require.NoError(t, repos.Credit.SaveCredit(ctx, credit, nil))

		// Each writer distributes its own lump sum the way the service does,
		// from the rows the transaction hands it.
		payLump := func(amount int64) error {
			return repos.Credit.ApplyToEligibleCredits(ctx, cust.CustomerID, func(eligible []domain.Credit) ([]domain.Credit, []domain.PaymentRecord, error) {
				entries, err := allocation.Allocate(decimal.NewFromInt(amount), eligible, nil)
				if err != nil {
					return nil, nil, err
				}
				byID := make(map[string]domain.Credit, len(eligible))
				for _, c := range eligible {
					byID[c.CreditID] = c
				}
				var updated []domain.Credit
				var records []domain.PaymentRecord
				for _, entry := range entries {
					if !entry.AmountToBePaid.IsPositive() {
						continue
					}
					up, err := allocation.RecordPayment(byID[entry.CreditID], domain.PaymentRecord{
						PaymentID:   uuid.NewString(),
						CreditID:    entry.CreditID,
						Amount:      entry.AmountToBePaid,
						PaymentDate: now,
						AuditFields: domain.AuditFields{CreatedAt: now, CreatedBy: "writer", LastUpdatedAt: now, LastUpdatedBy: "writer"},
					})
					if err != nil {
						return nil, nil, err
					}
					updated = append(updated, up)
					records = append(records, up.Payments[len(up.Payments)-1])
				}
				return updated, records, nil
			})
		}

		const writers = 4
		errs := make(chan error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- payLump(100)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repos.Credit.FindCreditByID(ctx, credit.CreditID)
		require.NoError(t, err)
		require.True(t, got.PaidAmount.Equal(decimal.NewFromInt(100*writers)),
			"paid %s after %d writers of 100 each", got.PaidAmount, writers)

		payments, err := repos.Credit.FindPaymentsByCreditID(ctx, credit.CreditID)
		require.NoError(t, err)
		require.Len(t, payments, writers)
		historySum := decimal.Zero
		for _, p := range payments {
			historySum = historySum.Add(p.Amount)
		}
		require.True(t, got.PaidAmount.Equal(historySum), "balance %s diverged from history sum %s", got.PaidAmount, historySum)
	})

	t.Run("DeleteCustomer cascades to credits and payments", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		_, cust := seedOwnerAndCustomer(t, ctx, repos)

		credit := newCredit(cust.CustomerID, 400, time.Now().UTC().Truncate(time.Second))
		require.NoError(t, repos.Credit.SaveCredit(ctx, credit, nil))

		require.NoError(t, repos.Customer.DeleteCustomer(ctx, cust.CustomerID))

		_, err := repos.Customer.FindCustomerByID(ctx, cust.CustomerID)
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
		_, err = repos.Credit.FindCreditByID(ctx, credit.CreditID)
		require.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("ListPaymentsByCreditID pages newest first", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		_, cust := seedOwnerAndCustomer(t, ctx, repos)

		now := time.Now().UTC().Truncate(time.Second)
		credit := newCredit(cust.CustomerID, 1000, now.Add(-96*time.Hour))
		require.NoError(t, repos.Credit.SaveCredit(ctx, credit, nil))

		for i := 0; i < 3; i++ {
			when := now.Add(time.Duration(-i) * 24 * time.Hour)
			payment := domain.PaymentRecord{
				PaymentID:             uuid.NewString(),
				CreditID:              credit.CreditID,
				Amount:                decimal.NewFromInt(100),
				PaymentDate:           when,
				RemainingAfterPayment: decimal.NewFromInt(int64(900 - 100*i)),
				AuditFields:           domain.AuditFields{CreatedAt: when, CreatedBy: "seed", LastUpdatedAt: when, LastUpdatedBy: "seed"},
			}
			err := repos.Credit.ApplyToCredits(ctx, []string{credit.CreditID}, func(credits []domain.Credit) ([]domain.Credit, []domain.PaymentRecord, error) {
				return credits, []domain.PaymentRecord{payment}, nil
			})
			require.NoError(t, err)
		}

		page1, token, err := repos.Credit.ListPaymentsByCreditID(ctx, credit.CreditID, 2, nil)
		require.NoError(t, err)
		require.Len(t, page1, 2)
		require.NotNil(t, token)
		require.True(t, page1[0].PaymentDate.After(page1[1].PaymentDate))

		page2, token2, err := repos.Credit.ListPaymentsByCreditID(ctx, credit.CreditID, 2, token)
		require.NoError(t, err)
		require.Len(t, page2, 1)
		require.Nil(t, token2)
	})

	t.Run("Reporting aggregates outstanding per customer", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		owner, cust := seedOwnerAndCustomer(t, ctx, repos)

		now := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repos.Credit.SaveCredit(ctx, newCredit(cust.CustomerID, 300, now.Add(-24*time.Hour)), nil))
		require.NoError(t, repos.Credit.SaveCredit(ctx, newCredit(cust.CustomerID, 200, now), nil))

		rows, err := repos.Reporting.GetOutstandingByCustomer(ctx, owner.UserID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, cust.CustomerID, rows[0].CustomerID)
		require.Equal(t, 2, rows[0].OpenCredits)
		require.True(t, rows[0].TotalOutstanding.Equal(decimal.NewFromInt(500)))
	})

	t.Run("Duplicate username rejected", func(t *testing.T) {
		ctx := context.Background()
		repos := newTestProvider(t)
		owner, _ := seedOwnerAndCustomer(t, ctx, repos)

		dup := owner
		dup.UserID = uuid.NewString()
		err := repos.User.SaveUser(ctx, dup)
		require.Error(t, err)
		require.True(t, errors.Is(err, apperrors.ErrDuplicate))
	})
}
