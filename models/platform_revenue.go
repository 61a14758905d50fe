package models

import (
	"time"
)

// RevenueSource identifies which settlement produced platform revenue
type RevenueSource string

const (
	RevenueSourceMatchFee         RevenueSource = "match_fee"
	RevenueSourceSideBetFee       RevenueSource = "side_bet_fee"
	RevenueSourceTournamentProfit RevenueSource = "tournament_profit"
)

// PlatformRevenue is an append-only accounting record of the platform's cut
// from a settlement. It is not a user account; it exists so that every
// settled pot can be audited to the cent.
type PlatformRevenue struct {
	ID          int64         `db:"id"`
	Source      RevenueSource `db:"source"`
	ReferenceID string        `db:"reference_id"`
	AmountCents int64         `db:"amount_cents"`
	CreatedAt   time.Time     `db:"created_at"`
}
