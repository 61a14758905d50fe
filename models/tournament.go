package models

import (
	"time"
)

// TournamentStatus represents the lifecycle of a tournament
type TournamentStatus string

const (
	TournamentStatusUpcoming TournamentStatus = "upcoming"
	TournamentStatusActive   TournamentStatus = "active"
	TournamentStatusEnded    TournamentStatus = "ended"
)

// Tournament accumulates entry fees into a prize pool plus platform and
// reserve shares. The prize pool is zeroed when the tournament ends and the
// ended transition happens exactly once.
type Tournament struct {
	ID                  int64            `db:"id"`
	Name                string           `db:"name"`
	EntryFeeCents       int64            `db:"entry_fee_cents"`
	PrizePoolCents      int64            `db:"prize_pool_cents"`
	PlatformProfitCents int64            `db:"platform_profit_cents"`
	ReserveCents        int64            `db:"reserve_cents"`
	StartAt             time.Time        `db:"start_at"`
	EndAt               time.Time        `db:"end_at"`
	Status              TournamentStatus `db:"status"`
	CreatedAt           time.Time        `db:"created_at"`
}

// AcceptsEntries reports whether new players can still join
func (t *Tournament) AcceptsEntries() bool {
	return t.Status == TournamentStatusUpcoming || t.Status == TournamentStatusActive
}

// TournamentPlayer is one account's entry in a tournament. Unique per
// (tournament, account). Score is floored at zero.
type TournamentPlayer struct {
	ID           int64     `db:"id"`
	TournamentID int64     `db:"tournament_id"`
	AccountID    int64     `db:"account_id"`
	Score        int64     `db:"score"`
	JoinedAt     time.Time `db:"joined_at"`
}

// PrizeAward is one ranked payout from a tournament settlement
type PrizeAward struct {
	Rank        int
	AccountID   int64
	Score       int64
	AmountCents int64
}

// TournamentResult is the outcome of ending a tournament
type TournamentResult struct {
	Tournament *Tournament
	Awards     []PrizeAward
	PaidCents  int64
}
