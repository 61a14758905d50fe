package testutil

import (
	"context"
	"fmt"
	"testing"

	"arena/database"
	"arena/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateTestAccount inserts an account with the given starting balance. The
// balance is fully withdrawable, as if it came from a deposit.
func CreateTestAccount(ctx context.Context, t *testing.T, db *database.DB, balanceCents int64) *models.Account {
	t.Helper()

	var account models.Account
	err := db.QueryRow(ctx, `
		INSERT INTO accounts (balance_cents, withdrawable_cents, total_deposited)
		VALUES ($1, $1, $1)
		RETURNING id, balance_cents, withdrawable_cents, ad_credit_cents,
		          total_deposited, total_withdrawn, total_earned, is_banned,
		          created_at, updated_at`,
		balanceCents,
	).Scan(
		&account.ID,
		&account.BalanceCents,
		&account.WithdrawableCents,
		&account.AdCreditCents,
		&account.TotalDeposited,
		&account.TotalWithdrawn,
		&account.TotalEarned,
		&account.IsBanned,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	require.NoError(t, err, "failed to create test account")
	return &account
}

// NewReferenceID returns a unique settlement reference for test transactions
func NewReferenceID(prefix string) string {
	return fmt.Sprintf("%s:%s", prefix, uuid.NewString())
}
