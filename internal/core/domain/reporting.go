package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerOutstanding is one row of the per-customer outstanding balance report.
type CustomerOutstanding struct {
	CustomerID       string          `json:"customerID"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	OpenCredits      int             `json:"openCredits"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	OldestCreditDate *time.Time      `json:"oldestCreditDate,omitempty"`
}

// StatusTotal aggregates credits of one status.
type StatusTotal struct {
	Status      CreditStatus    `json:"status"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
}

// OverdueCredit pairs an outstanding credit with the contact details the
// reminder service needs.
type OverdueCredit struct {
	Credit        Credit `json:"credit"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	OwnerUserID   string `json:"ownerUserID"`
	OwnerEmail    string `json:"ownerEmail,omitempty"`
}
