package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist. Amounts are stored as TEXT so
// decimal values round-trip exactly; timestamps are stored as RFC3339 text.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT,
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL,
    deleted_at TIMESTAMP,
    refresh_token_hash TEXT,
    refresh_token_expiry_time TIMESTAMP
);

CREATE TABLE IF NOT EXISTS customers (
    customer_id TEXT PRIMARY KEY,
    owner_user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL,
    FOREIGN KEY (owner_user_id) REFERENCES users(user_id)
);

CREATE TABLE IF NOT EXISTS credits (
    credit_id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    item TEXT NOT NULL,
    remarks TEXT NOT NULL DEFAULT '',
    credit_date TIMESTAMP NOT NULL,
    images TEXT NOT NULL DEFAULT '[]',
    total_amount TEXT NOT NULL,
    paid_amount TEXT NOT NULL,
    remaining_amount TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL,
    FOREIGN KEY (customer_id) REFERENCES customers(customer_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payment_records (
    payment_id TEXT PRIMARY KEY,
    credit_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    payment_date TIMESTAMP NOT NULL,
    remaining_after_payment TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL,
    last_updated_at TIMESTAMP NOT NULL,
    last_updated_by TEXT NOT NULL,
    FOREIGN KEY (credit_id) REFERENCES credits(credit_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_customers_owner_user_id ON customers(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_credits_customer_id ON credits(customer_id);
CREATE INDEX IF NOT EXISTS idx_credits_customer_remaining ON credits(customer_id, remaining_amount);
CREATE INDEX IF NOT EXISTS idx_payment_records_credit_id ON payment_records(credit_id);
`

// runMigrations executes the schema statements.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
