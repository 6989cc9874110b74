package mapping

import (
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/DubeTracker/dube_ledger_app/internal/models"
)

// ToModelCredit converts a domain Credit to a model Credit.
// The payment history is persisted separately and is not part of the row.
func ToModelCredit(d domain.Credit) models.Credit {
	return models.Credit{
		CreditID:        d.CreditID,
		CustomerID:      d.CustomerID,
		Item:            d.Item,
		Remarks:         d.Remarks,
		CreditDate:      d.CreditDate,
		Images:          d.Images,
		TotalAmount:     d.TotalAmount,
		PaidAmount:      d.PaidAmount,
		RemainingAmount: d.RemainingAmount,
		Status:          string(d.Status),
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCredit converts a model Credit to a domain Credit
func ToDomainCredit(m models.Credit) domain.Credit {
	return domain.Credit{
		CreditID:        m.CreditID,
		CustomerID:      m.CustomerID,
		Item:            m.Item,
		Remarks:         m.Remarks,
		CreditDate:      m.CreditDate,
		Images:          m.Images,
		TotalAmount:     m.TotalAmount,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		Status:          domain.CreditStatus(m.Status),
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCreditSlice converts a slice of model Credits to domain Credits
func ToDomainCreditSlice(ms []models.Credit) []domain.Credit {
	ds := make([]domain.Credit, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCredit(m)
	}
	return ds
}

// ToModelPaymentRecord converts a domain PaymentRecord to a model PaymentRecord
func ToModelPaymentRecord(d domain.PaymentRecord) models.PaymentRecord {
	return models.PaymentRecord{
		PaymentID:             d.PaymentID,
		CreditID:              d.CreditID,
		Amount:                d.Amount,
		PaymentDate:           d.PaymentDate,
		RemainingAfterPayment: d.RemainingAfterPayment,
		Note:                  d.Note,
		AuditFields:           ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPaymentRecord converts a model PaymentRecord to a domain PaymentRecord
func ToDomainPaymentRecord(m models.PaymentRecord) domain.PaymentRecord {
	return domain.PaymentRecord{
		PaymentID:             m.PaymentID,
		CreditID:              m.CreditID,
		Amount:                m.Amount,
		PaymentDate:           m.PaymentDate,
		RemainingAfterPayment: m.RemainingAfterPayment,
		Note:                  m.Note,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentRecordSlice converts a slice of model PaymentRecords to domain PaymentRecords
func ToDomainPaymentRecordSlice(ms []models.PaymentRecord) []domain.PaymentRecord {
	ds := make([]domain.PaymentRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPaymentRecord(m)
	}
	return ds
}
