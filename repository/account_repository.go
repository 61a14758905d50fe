package repository

import (
	"context"
	"fmt"

	"arena/database"
	"arena/models"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `
	id, balance_cents, withdrawable_cents, ad_credit_cents,
	total_deposited, total_withdrawn, total_earned, is_banned,
	created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.BalanceCents,
		&a.WithdrawableCents,
		&a.AdCreditCents,
		&a.TotalDeposited,
		&a.TotalWithdrawn,
		&a.TotalEarned,
		&a.IsBanned,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	return account, nil
}

// Create creates a new account with zero balances
func (r *AccountRepository) Create(ctx context.Context) (*models.Account, error) {
	query := `INSERT INTO accounts DEFAULT VALUES RETURNING` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// Credit atomically adds to an account's balance. When affectWithdrawable is
// set the withdrawable balance grows by the same amount.
func (r *AccountRepository) Credit(ctx context.Context, accountID int64, amount int64, affectWithdrawable bool) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance_cents = balance_cents + $1,
		    withdrawable_cents = withdrawable_cents + CASE WHEN $2 THEN $1 ELSE 0 END,
		    updated_at = NOW()
		WHERE id = $3
		RETURNING` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, amount, affectWithdrawable, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to credit account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, models.ErrAccountNotFound
	}
	return account, nil
}

// Debit atomically deducts from an account's balance. The update only matches
// when the balance covers the amount, so two concurrent debits can never both
// succeed against the same funds. With allowNegative the balance guard is
// skipped (admin corrections). Withdrawable is clamped at zero.
func (r *AccountRepository) Debit(ctx context.Context, accountID int64, amount int64, affectWithdrawable, allowNegative bool) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance_cents = balance_cents - $1,
		    withdrawable_cents = CASE WHEN $2 THEN GREATEST(withdrawable_cents - $1, 0) ELSE withdrawable_cents END,
		    updated_at = NOW()
		WHERE id = $3
		  AND ($4 OR balance_cents >= $1)
		RETURNING` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, amount, affectWithdrawable, accountID, allowNegative))
	if err != nil {
		return nil, fmt.Errorf("failed to debit account %d: %w", accountID, err)
	}
	if account == nil {
		existing, err := r.GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account %d: %w", accountID, err)
		}
		if existing == nil {
			return nil, models.ErrAccountNotFound
		}
		return nil, models.ErrInsufficientFunds
	}
	return account, nil
}

// DebitWithdrawable deducts from both balance and withdrawable, matching only
// when the withdrawable balance covers the amount. Used for withdrawal
// requests, which may never dip into entry-fee or reward money.
func (r *AccountRepository) DebitWithdrawable(ctx context.Context, accountID int64, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance_cents = balance_cents - $1,
		    withdrawable_cents = withdrawable_cents - $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND withdrawable_cents >= $1
		RETURNING` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, amount, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to debit withdrawable for account %d: %w", accountID, err)
	}
	if account == nil {
		existing, err := r.GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account %d: %w", accountID, err)
		}
		if existing == nil {
			return nil, models.ErrAccountNotFound
		}
		return nil, models.ErrInsufficientFunds
	}
	return account, nil
}

// AddLifetimeTotals bumps the lifetime counters matching a transaction kind
func (r *AccountRepository) AddLifetimeTotals(ctx context.Context, accountID int64, deposited, withdrawn, earned int64) error {
	query := `
		UPDATE accounts
		SET total_deposited = total_deposited + $1,
		    total_withdrawn = total_withdrawn + $2,
		    total_earned = total_earned + $3,
		    updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, deposited, withdrawn, earned, accountID)
	if err != nil {
		return fmt.Errorf("failed to update lifetime totals for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// AddAdCredit atomically adds segregated advertiser credit
func (r *AccountRepository) AddAdCredit(ctx context.Context, accountID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET ad_credit_cents = ad_credit_cents + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, accountID)
	if err != nil {
		return fmt.Errorf("failed to add ad credit for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// SetBanned flips the suspension flag on an account
func (r *AccountRepository) SetBanned(ctx context.Context, accountID int64, banned bool) error {
	query := `UPDATE accounts SET is_banned = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.Exec(ctx, query, banned, accountID)
	if err != nil {
		return fmt.Errorf("failed to update ban flag for account %d: %w", accountID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}
