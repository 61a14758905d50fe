package models

import (
	"time"
)

// TransactionKind categorises a ledger movement
type TransactionKind string

const (
	TransactionKindDeposit            TransactionKind = "deposit"
	TransactionKindWithdrawal         TransactionKind = "withdrawal"
	TransactionKindMatchEntry         TransactionKind = "match_entry"
	TransactionKindMatchPrize         TransactionKind = "match_prize"
	TransactionKindTournamentEntry    TransactionKind = "tournament_entry"
	TransactionKindTournamentPrize    TransactionKind = "tournament_prize"
	TransactionKindTeamPrize          TransactionKind = "team_prize"
	TransactionKindGameReward         TransactionKind = "game_reward"
	TransactionKindAdjustment         TransactionKind = "adjustment"
	TransactionKindReferral           TransactionKind = "referral"
	TransactionKindReferralCommission TransactionKind = "referral_commission"
	TransactionKindAdCredit           TransactionKind = "ad_credit"
)

// TransactionStatus represents the lifecycle of a transaction record
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRejected  TransactionStatus = "rejected"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Direction says which way money moves relative to the account
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Transaction is an immutable append-only ledger record. The amount is
// unsigned; the sign is implied by kind and direction. Status may be updated
// later (pending withdrawals) but the amount never changes after creation.
type Transaction struct {
	ID           int64             `db:"id"`
	AccountID    int64             `db:"account_id"`
	Kind         TransactionKind   `db:"kind"`
	Direction    Direction         `db:"direction"`
	AmountCents  int64             `db:"amount_cents"`
	Status       TransactionStatus `db:"status"`
	Description  string            `db:"description"`
	ReferenceID  string            `db:"reference_id"`
	BalanceAfter int64             `db:"balance_after"`
	CreatedAt    time.Time         `db:"created_at"`
}

// IsTerminal reports whether the transaction status can no longer change
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}
