package dto

import (
	"github.com/DubeTracker/dube_ledger_app/internal/core/allocation"
	"github.com/shopspring/decimal"
)

// BulkPaymentRequest defines the data needed to preview or apply a lump-sum
// payment across a customer's outstanding credits.
type BulkPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
	// Policy selects the distribution ordering. Supported values:
	// "oldest_first" (default) and "smallest_first".
	Policy string `json:"policy" binding:"omitempty,oneof=oldest_first smallest_first"`
}

// DistributionEntryResponse is the per-credit breakdown of a lump-sum distribution.
type DistributionEntryResponse struct {
	CreditID           string          `json:"creditID"`
	CurrentRemaining   decimal.Decimal `json:"currentRemaining"`
	AmountToBePaid     decimal.Decimal `json:"amountToBePaid"`
	NewRemaining       decimal.Decimal `json:"newRemaining"`
	DistributionStatus string          `json:"distributionStatus"`
}

// BulkPaymentPreviewResponse is the dry-run result of a lump-sum distribution.
// Nothing has been persisted; the client renders this before confirming.
type BulkPaymentPreviewResponse struct {
	LumpSum      decimal.Decimal             `json:"lumpSum"`
	Distribution []DistributionEntryResponse `json:"distribution"`
}

// BulkPaymentApplyResponse is returned after a lump-sum payment has been
// applied transactionally. Only entries that received money appear in
// AppliedPayments.
type BulkPaymentApplyResponse struct {
	LumpSum         decimal.Decimal             `json:"lumpSum"`
	Distribution    []DistributionEntryResponse `json:"distribution"`
	AppliedPayments []PaymentResponse           `json:"appliedPayments"`
}

// ToDistributionEntryResponses converts allocation entries to their DTO form.
func ToDistributionEntryResponses(entries []allocation.Entry) []DistributionEntryResponse {
	responses := make([]DistributionEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = DistributionEntryResponse{
			CreditID:           e.CreditID,
			CurrentRemaining:   e.CurrentRemaining,
			AmountToBePaid:     e.AmountToBePaid,
			NewRemaining:       e.NewRemaining,
			DistributionStatus: string(e.Status),
		}
	}
	return responses
}
