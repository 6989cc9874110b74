package dto

import (
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCreditRequest defines the data needed to record a new sale on credit.
// TotalAmount must be positive; the service validates decimal amounts since
// binding tags cannot compare decimal.Decimal values.
type CreateCreditRequest struct {
	Item        string          `json:"item" binding:"required"`
	Remarks     string          `json:"remarks"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreditDate  *time.Time      `json:"creditDate"` // Defaults to now when omitted
	Images      []string        `json:"images"`

	// Optional down payment taken at the time of sale; logged as the first
	// payment history entry.
	InitialPayment     *decimal.Decimal `json:"initialPayment"`
	InitialPaymentNote string           `json:"initialPaymentNote"`
}

// UpdateCreditRequest defines the data allowed for a direct edit of a credit.
// Editing totals recomputes remaining/status but appends no payment record.
type UpdateCreditRequest struct {
	Item        *string          `json:"item"`
	Remarks     *string          `json:"remarks"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
	PaidAmount  *decimal.Decimal `json:"paidAmount"`
	Images      []string         `json:"images"`
}

// CreditResponse defines the data returned for a credit.
type CreditResponse struct {
	CreditID        string              `json:"creditID"`
	CustomerID      string              `json:"customerID"`
	Item            string              `json:"item"`
	Remarks         string              `json:"remarks,omitempty"`
	CreditDate      time.Time           `json:"creditDate"`
	Images          []string            `json:"images,omitempty"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	PaidAmount      decimal.Decimal     `json:"paidAmount"`
	RemainingAmount decimal.Decimal     `json:"remainingAmount"`
	Status          domain.CreditStatus `json:"status"`
	Payments        []PaymentResponse   `json:"payments,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// ListCreditsResponse wraps the list of a customer's credits.
type ListCreditsResponse struct {
	Credits []CreditResponse `json:"credits"`
}

// ToCreditResponse converts a domain.Credit to CreditResponse DTO.
func ToCreditResponse(c *domain.Credit) CreditResponse {
	resp := CreditResponse{
		CreditID:        c.CreditID,
		CustomerID:      c.CustomerID,
		Item:            c.Item,
		Remarks:         c.Remarks,
		CreditDate:      c.CreditDate,
		Images:          c.Images,
		TotalAmount:     c.TotalAmount,
		PaidAmount:      c.PaidAmount,
		RemainingAmount: c.RemainingAmount,
		Status:          c.Status,
		CreatedAt:       c.CreatedAt,
	}
	if len(c.Payments) > 0 {
		resp.Payments = ToPaymentResponses(c.Payments)
	}
	return resp
}

// ToListCreditsResponse converts a slice of domain.Credit to ListCreditsResponse.
func ToListCreditsResponse(credits []domain.Credit) ListCreditsResponse {
	responses := make([]CreditResponse, len(credits))
	for i, c := range credits {
		responses[i] = ToCreditResponse(&c)
	}
	return ListCreditsResponse{Credits: responses}
}
