package dto

import (
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CustomerOutstandingResponse is one row of the per-customer outstanding report.
type CustomerOutstandingResponse struct {
	CustomerID       string          `json:"customerID"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	OpenCredits      int             `json:"openCredits"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	OldestCreditDate *time.Time      `json:"oldestCreditDate,omitempty"`
}

// StatusTotalResponse is one row of the status breakdown report.
type StatusTotalResponse struct {
	Status      string          `json:"status"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
}

// OverdueCreditResponse is one row of the overdue credits report.
type OverdueCreditResponse struct {
	Credit          CreditResponse `json:"credit"`
	CustomerName    string         `json:"customerName"`
	CustomerPhone   string         `json:"customerPhone"`
	DaysOutstanding int            `json:"daysOutstanding"`
}

// ToCustomerOutstandingResponses converts the domain report rows to DTOs.
func ToCustomerOutstandingResponses(rows []domain.CustomerOutstanding) []CustomerOutstandingResponse {
	responses := make([]CustomerOutstandingResponse, len(rows))
	for i, r := range rows {
		responses[i] = CustomerOutstandingResponse{
			CustomerID:       r.CustomerID,
			Name:             r.Name,
			Phone:            r.Phone,
			OpenCredits:      r.OpenCredits,
			TotalOutstanding: r.TotalOutstanding,
			OldestCreditDate: r.OldestCreditDate,
		}
	}
	return responses
}

// ToStatusTotalResponses converts the domain status totals to DTOs.
func ToStatusTotalResponses(rows []domain.StatusTotal) []StatusTotalResponse {
	responses := make([]StatusTotalResponse, len(rows))
	for i, r := range rows {
		responses[i] = StatusTotalResponse{
			Status:      string(r.Status),
			Count:       r.Count,
			TotalAmount: r.TotalAmount,
			PaidAmount:  r.PaidAmount,
		}
	}
	return responses
}

// ToOverdueCreditResponses converts the domain overdue rows to DTOs.
func ToOverdueCreditResponses(rows []domain.OverdueCredit, now time.Time) []OverdueCreditResponse {
	responses := make([]OverdueCreditResponse, len(rows))
	for i, r := range rows {
		responses[i] = OverdueCreditResponse{
			Credit:          ToCreditResponse(&r.Credit),
			CustomerName:    r.CustomerName,
			CustomerPhone:   r.CustomerPhone,
			DaysOutstanding: int(now.Sub(r.Credit.CreditDate).Hours() / 24),
		}
	}
	return responses
}
