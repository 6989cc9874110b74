package dto

import (
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest defines the data needed to record a payment against a
// single credit. Overpayment is accepted; the response flags it so the UI can
// warn before (or after) confirming.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// PaymentResponse defines the data returned for one payment history entry.
type PaymentResponse struct {
	PaymentID             string          `json:"paymentID"`
	CreditID              string          `json:"creditID"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentDate           time.Time       `json:"paymentDate"`
	RemainingAfterPayment decimal.Decimal `json:"remainingAfterPayment"`
	Note                  string          `json:"note,omitempty"`
}

// RecordPaymentResponse is returned after a payment is applied.
// Overpayment is true when the amount exceeded the remaining balance; the
// balance is floored at zero in that case.
type RecordPaymentResponse struct {
	Credit      CreditResponse  `json:"credit"`
	Payment     PaymentResponse `json:"payment"`
	Overpayment bool            `json:"overpayment"`
}

// ListPaymentsParams defines query parameters for paging through payment history.
type ListPaymentsParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListPaymentsResponse wraps a page of payment history.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToPaymentResponse converts a domain.PaymentRecord to PaymentResponse DTO.
func ToPaymentResponse(p *domain.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		PaymentID:             p.PaymentID,
		CreditID:              p.CreditID,
		Amount:                p.Amount,
		PaymentDate:           p.PaymentDate,
		RemainingAfterPayment: p.RemainingAfterPayment,
		Note:                  p.Note,
	}
}

// ToPaymentResponses converts a slice of domain.PaymentRecord to []PaymentResponse.
func ToPaymentResponses(payments []domain.PaymentRecord) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = ToPaymentResponse(&p)
	}
	return responses
}
