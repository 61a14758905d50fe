package models

import (
	"time"
)

// MatchStatus represents the lifecycle of a head-to-head match
type MatchStatus string

const (
	MatchStatusOpen      MatchStatus = "open"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

// EscrowHoldStatus represents the state of a participant's staked funds
type EscrowHoldStatus string

const (
	EscrowHoldStatusHeld      EscrowHoldStatus = "held"
	EscrowHoldStatusReleased  EscrowHoldStatus = "released"
	EscrowHoldStatusForfeited EscrowHoldStatus = "forfeited"
	EscrowHoldStatusRefunded  EscrowHoldStatus = "refunded"
)

// Match is a head-to-head wager between two accounts. The opponent is nil
// while the match waits in the open state. The platform fee is provisional
// until the opponent joins and is always computed on the full pot.
type Match struct {
	ID                int64       `db:"id"`
	HostAccountID     int64       `db:"host_account_id"`
	OpponentAccountID *int64      `db:"opponent_account_id"`
	EntryFeeCents     int64       `db:"entry_fee_cents"`
	PlatformFeeCents  int64       `db:"platform_fee_cents"`
	TotalPotCents     int64       `db:"total_pot_cents"`
	Status            MatchStatus `db:"status"`
	WinnerAccountID   *int64      `db:"winner_account_id"`
	Seed              int64       `db:"seed"`
	CreatedAt         time.Time   `db:"created_at"`
	SettledAt         *time.Time  `db:"settled_at"`
}

// IsParticipant checks whether an account is staked in this match
func (m *Match) IsParticipant(accountID int64) bool {
	if m.HostAccountID == accountID {
		return true
	}
	return m.OpponentAccountID != nil && *m.OpponentAccountID == accountID
}

// Opponent returns the other participant's account ID, or 0 when the given
// account is not a participant or the match has no opponent yet.
func (m *Match) Opponent(accountID int64) int64 {
	if m.OpponentAccountID == nil {
		return 0
	}
	if m.HostAccountID == accountID {
		return *m.OpponentAccountID
	}
	if *m.OpponentAccountID == accountID {
		return m.HostAccountID
	}
	return 0
}

// EscrowHold is one participant's stake held against a match until
// settlement. Exactly one terminal status is set when the match resolves.
type EscrowHold struct {
	ID          int64            `db:"id"`
	MatchID     int64            `db:"match_id"`
	AccountID   int64            `db:"account_id"`
	AmountCents int64            `db:"amount_cents"`
	Status      EscrowHoldStatus `db:"status"`
	CreatedAt   time.Time        `db:"created_at"`
}

// SideBetStatus represents the state of a spectator bet
type SideBetStatus string

const (
	SideBetStatusPending SideBetStatus = "pending"
	SideBetStatusWon     SideBetStatus = "won"
	SideBetStatusLost    SideBetStatus = "lost"
)

// SideBet is a spectator wager on a match outcome. The stake is deducted at
// placement; the payout is written when the match settles.
type SideBet struct {
	ID              int64         `db:"id"`
	MatchID         int64         `db:"match_id"`
	BettorAccountID int64         `db:"bettor_account_id"`
	ChosenAccountID int64         `db:"chosen_account_id"`
	AmountCents     int64         `db:"amount_cents"`
	Status          SideBetStatus `db:"status"`
	PayoutCents     int64         `db:"payout_cents"`
	CreatedAt       time.Time     `db:"created_at"`
}

// MatchResult is the outcome of a match settlement
type MatchResult struct {
	Match            *Match
	WinnerAccountID  int64
	LoserAccountID   int64
	PayoutCents      int64
	PlatformFeeCents int64
	SideBetPayouts   map[int64]int64 // bettor account ID -> payout
	AlreadySettled   bool
}
