package repository

import (
	"context"
	"fmt"

	"arena/database"
	"arena/models"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `
	id, account_id, kind, direction, amount_cents, status,
	description, reference_id, balance_after, created_at`

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Kind,
		&t.Direction,
		&t.AmountCents,
		&t.Status,
		&t.Description,
		&t.ReferenceID,
		&t.BalanceAfter,
		&t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create appends a new transaction record. The amount is immutable after this.
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions
		(account_id, kind, direction, amount_cents, status, description, reference_id, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.AccountID,
		txn.Kind,
		txn.Direction,
		txn.AmountCents,
		txn.Status,
		txn.Description,
		txn.ReferenceID,
		txn.BalanceAfter,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction for account %d: %w", txn.AccountID, err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return txn, nil
}

// GetByAccount returns the most recent transactions for an account
func (r *TransactionRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// GetByReference returns all transactions correlated to a settlement reference
func (r *TransactionRepository) GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error) {
	query := `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE reference_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for reference %s: %w", referenceID, err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// UpdateStatus transitions a pending transaction to a terminal status. The
// update only matches pending rows so a settled withdrawal cannot flip twice.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $1
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of transaction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}
