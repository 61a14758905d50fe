package models

import (
	"time"
)

// Account holds a user's cash-equivalent balances. Balances are only ever
// mutated through the ledger's adjustment operation, never written directly
// by the settlement engines.
type Account struct {
	ID                int64     `db:"id"`
	BalanceCents      int64     `db:"balance_cents"`
	WithdrawableCents int64     `db:"withdrawable_cents"`
	AdCreditCents     int64     `db:"ad_credit_cents"`
	TotalDeposited    int64     `db:"total_deposited"`
	TotalWithdrawn    int64     `db:"total_withdrawn"`
	TotalEarned       int64     `db:"total_earned"`
	IsBanned          bool      `db:"is_banned"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Snapshot is the result of a ledger read: the account plus its most
// recent transactions.
type Snapshot struct {
	Account      *Account
	Transactions []*Transaction
}
