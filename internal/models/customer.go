package models

// Customer is the database representation of a customer.
type Customer struct {
	CustomerID  string `db:"customer_id"`
	OwnerUserID string `db:"owner_user_id"`
	Name        string `db:"name"`
	Phone       string `db:"phone"`
	AuditFields
}
