package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

const transactionColumns = `
	id, tx_id, from_account, to_account, type, status, amount::text,
	old_balance_org::text, new_balance_orig::text,
	old_balance_dest::text, new_balance_dest::text, created_at`

// TransactionRepository implements usecase.TransactionRepository backed by
// PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a new transaction aggregate inside the caller's transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO transactions (
			id, tx_id, from_account, to_account, type, status, amount,
			old_balance_org, new_balance_orig, old_balance_dest, new_balance_dest,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = pgxTx.Exec(ctx, query,
		txn.ID,
		txn.TxID,
		txn.FromAccount,
		txn.ToAccount,
		txn.Type,
		string(txn.Status),
		txn.Amount.String(),
		txn.OldBalanceOrg.String(),
		txn.NewBalanceOrig.String(),
		txn.OldBalanceDest.String(),
		txn.NewBalanceDest.String(),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByTxID fetches a transaction by its external correlation id.
func (r *TransactionRepository) GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, txID))
}

// GetByTxIDForUpdate fetches and row-locks a transaction inside the caller's
// transaction.
func (r *TransactionRepository) GetByTxIDForUpdate(ctx context.Context, tx usecase.Transaction, txID string) (*domain.Transaction, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tx_id = $1 FOR UPDATE`

	return scanTransaction(pgxTx.QueryRow(ctx, query, txID))
}

// UpdateStatus writes a new status inside the caller's transaction.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, txID string, status domain.Status) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	const query = `UPDATE transactions SET status = $2 WHERE tx_id = $1`

	tag, err := pgxTx.Exec(ctx, query, txID, string(status))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateStatusGuarded writes the next status only while the row still holds
// the expected one. The guard runs as a single statement, so concurrent
// writers to the same row resolve first-committed-wins without any lock held
// by the caller.
func (r *TransactionRepository) UpdateStatusGuarded(ctx context.Context, txID string, expected, next domain.Status) (bool, error) {
	const query = `UPDATE transactions SET status = $3 WHERE tx_id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, txID, string(expected), string(next))
	if err != nil {
		return false, fmt.Errorf("update status guarded: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateSnapshots overwrites the provisional balance snapshots with the
// committed post-apply values inside the caller's transaction.
func (r *TransactionRepository) UpdateSnapshots(ctx context.Context, tx usecase.Transaction, txID string, newOrig, newDest decimal.Decimal) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	const query = `
		UPDATE transactions
		SET new_balance_orig = $2, new_balance_dest = $3
		WHERE tx_id = $1`

	tag, err := pgxTx.Exec(ctx, query, txID, newOrig.String(), newDest.String())
	if err != nil {
		return fmt.Errorf("update snapshots: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListRequestedBefore returns transactions still in REQUESTED that were
// created before the cutoff, oldest first.
func (r *TransactionRepository) ListRequestedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, string(domain.StatusRequested), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list requested: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction

	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requested: %w", err)
	}

	return txns, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn    domain.Transaction
		status string
		fields = struct {
			amount, oldOrg, newOrig, oldDest, newDest string
		}{}
	)

	err := row.Scan(
		&txn.ID,
		&txn.TxID,
		&txn.FromAccount,
		&txn.ToAccount,
		&txn.Type,
		&status,
		&fields.amount,
		&fields.oldOrg,
		&fields.newOrig,
		&fields.oldDest,
		&fields.newDest,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	txn.Status = domain.Status(status)

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&txn.Amount, fields.amount},
		{&txn.OldBalanceOrg, fields.oldOrg},
		{&txn.NewBalanceOrig, fields.newOrig},
		{&txn.OldBalanceDest, fields.oldDest},
		{&txn.NewBalanceDest, fields.newDest},
	} {
		*f.dst, err = decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
	}

	return &txn, nil
}
