package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// AccountRepository implements usecase.AccountRepository backed by PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
		INSERT INTO accounts (id, account_no, holder_name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.AccountNo,
		account.HolderName,
		account.Balance.String(),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrAccountExists
		}

		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByNumber fetches an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNo string) (*domain.Account, error) {
	const query = `
		SELECT id, account_no, holder_name, balance::text, created_at, updated_at
		FROM accounts
		WHERE account_no = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, accountNo))
}

// GetPairForUpdate row-locks both accounts of a transfer inside the caller's
// transaction. Locks are taken in account-number order so two transfers
// touching the same pair never deadlock, and the rows are mapped back to
// (origin, destination) afterwards.
func (r *AccountRepository) GetPairForUpdate(ctx context.Context, tx usecase.Transaction, fromNo, toNo string) (*domain.Account, *domain.Account, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, nil, err
	}

	const query = `
		SELECT id, account_no, holder_name, balance::text, created_at, updated_at
		FROM accounts
		WHERE account_no = ANY($1)
		ORDER BY account_no
		FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, []string{fromNo, toNo})
	if err != nil {
		return nil, nil, fmt.Errorf("lock account pair: %w", err)
	}
	defer rows.Close()

	byNumber := make(map[string]*domain.Account, 2)

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, nil, err
		}

		byNumber[account.AccountNo] = account
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("lock account pair: %w", err)
	}

	origin, ok := byNumber[fromNo]
	if !ok {
		return nil, nil, domain.ErrOriginAccountNotFound
	}

	dest, ok := byNumber[toNo]
	if !ok {
		return nil, nil, domain.ErrDestAccountNotFound
	}

	return origin, dest, nil
}

// UpdateBalance writes a new balance inside the caller's transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	const query = `
		UPDATE accounts
		SET balance = $2, updated_at = $3
		WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, id, balance.String(), updatedAt)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		balance string
	)

	err := row.Scan(
		&account.ID,
		&account.AccountNo,
		&account.HolderName,
		&balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}

	return &account, nil
}
