package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Settlement policy. Percentages are expressed in basis points-free
	// integer percent (10 = 10%) to keep the arithmetic exact.
	MatchFeePercent    int64 // platform cut of the full match pot
	SideBetFeePercent  int64 // platform cut of the losing side-bet pool
	MinEntryFeeCents   int64 // floor for match stakes
	SnapshotTxnLimit   int   // transactions returned with a ledger snapshot

	// Tournament entry fee split, must sum to 100
	TournamentPoolPercent    int64
	TournamentProfitPercent  int64
	TournamentReservePercent int64

	// Ranked prize shares for ranks 1..n, must sum to 100
	PrizeSharePercents []int64

	// Reward budget
	DailyRewardBudgetCents int64

	// Environment: "development", "production" or "test"
	Environment string
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Settlement defaults
		MatchFeePercent:   10,
		SideBetFeePercent: 5,
		MinEntryFeeCents:  100,
		SnapshotTxnLimit:  50,

		TournamentPoolPercent:    60,
		TournamentProfitPercent:  30,
		TournamentReservePercent: 10,

		PrizeSharePercents: []int64{50, 30, 20},

		DailyRewardBudgetCents: 1_000_000, // 10k in cents

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("MATCH_FEE_PERCENT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MatchFeePercent = parsed
		}
	}
	if v := os.Getenv("SIDE_BET_FEE_PERCENT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.SideBetFeePercent = parsed
		}
	}
	if v := os.Getenv("MIN_ENTRY_FEE_CENTS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MinEntryFeeCents = parsed
		}
	}
	if v := os.Getenv("DAILY_REWARD_BUDGET_CENTS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.DailyRewardBudgetCents = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.TournamentPoolPercent+config.TournamentProfitPercent+config.TournamentReservePercent != 100 {
		return nil, fmt.Errorf("tournament split percentages must sum to 100")
	}

	var prizeSum int64
	for _, share := range config.PrizeSharePercents {
		prizeSum += share
	}
	if prizeSum != 100 {
		return nil, fmt.Errorf("prize share percentages must sum to 100")
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
