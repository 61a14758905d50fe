package models

import (
	"time"
)

// RewardBudget is the single global, date-scoped spending cap shared by all
// game payout sources. One row per calendar day; used resets with the day.
type RewardBudget struct {
	Day             time.Time `db:"day"`
	DailyLimitCents int64     `db:"daily_limit_cents"`
	DailyUsedCents  int64     `db:"daily_used_cents"`
}

// RemainingCents returns the unreserved budget for the day
func (b *RewardBudget) RemainingCents() int64 {
	remaining := b.DailyLimitCents - b.DailyUsedCents
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RewardSource identifies which game produced a budgeted payout
type RewardSource string

const (
	RewardSourceSpin       RewardSource = "spin"
	RewardSourceMysteryBox RewardSource = "mystery_box"
	RewardSourceDailyBonus RewardSource = "daily_bonus"
	RewardSourceStreak     RewardSource = "streak"
	RewardSourceMission    RewardSource = "mission"
)
