package domain

// Customer represents a buyer the shop extends credit to.
// Deleting a customer cascades to all of their credits.
type Customer struct {
	CustomerID  string `json:"customerID"`  // Primary Key (UUID)
	OwnerUserID string `json:"ownerUserID"` // FK -> users.user_id; the shop owner
	Name        string `json:"name"`
	Phone       string `json:"phone"` // Ethiopian-format phone number
	AuditFields
}
