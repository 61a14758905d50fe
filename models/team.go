package models

import (
	"time"
)

// Team groups accounts for pooled scoring and prizes. An account belongs to
// at most one team at a time. TotalScore is derived from member scores and
// refreshed after score and membership changes.
type Team struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	OwnerAccountID int64     `db:"owner_account_id"`
	TotalScore     int64     `db:"total_score"`
	CreatedAt      time.Time `db:"created_at"`
}

// TeamMember links an account to its team
type TeamMember struct {
	ID        int64     `db:"id"`
	TeamID    int64     `db:"team_id"`
	AccountID int64     `db:"account_id"`
	JoinedAt  time.Time `db:"joined_at"`
}

// TeamPrizeMode selects how a pooled team prize is split
type TeamPrizeMode string

const (
	TeamPrizeModeEven           TeamPrizeMode = "even"
	TeamPrizeModeByContribution TeamPrizeMode = "by_contribution"
)

// TeamPrizeShare is one member's cut of a distributed team prize
type TeamPrizeShare struct {
	AccountID   int64
	AmountCents int64
}
