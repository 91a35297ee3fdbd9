// Package postgres provides PostgreSQL implementation of the billing repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/billing"
	"github.com/study-on/billing/internal/domain"
)

// Repository implements billing.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const transactionSelect = `
	SELECT t.id, t.type, t.amount, t.user_id, t.course_id, c.code, c.title, c.type, t.expires_at, t.created_at
	FROM transactions t
	LEFT JOIN courses c ON c.id = t.course_id
`

// BeginTx starts a new transaction.
func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// GetUserForUpdateTx reads a user and locks the row for the rest of tx.
func (r *Repository) GetUserForUpdateTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.User, error) {
	query := `
		SELECT id, email, balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	var user domain.User
	err := tx.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Email, &user.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user for update: %w", err)
	}
	return &user, nil
}

// AddBalanceTx atomically adds delta to the user's balance.
func (r *Repository) AddBalanceTx(ctx context.Context, tx pgx.Tx, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, query, userID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, billing.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("add balance: %w", err)
	}
	return balance, nil
}

// CreateTransactionTx appends a ledger entry.
func (r *Repository) CreateTransactionTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (type, amount, user_id, course_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query,
		t.Type,
		t.Amount,
		t.UserID,
		t.CourseID,
		t.ExpiresAt,
		t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the user's entries matching filter, newest first.
func (r *Repository) ListTransactions(ctx context.Context, filter billing.TransactionFilter) ([]domain.Transaction, error) {
	conditions := []string{"t.user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("t.type = $%d", len(args)))
	}
	if filter.CourseCode != nil {
		args = append(args, *filter.CourseCode)
		conditions = append(conditions, fmt.Sprintf("c.code = $%d", len(args)))
	}
	if filter.SkipExpired {
		args = append(args, filter.Now)
		conditions = append(conditions, fmt.Sprintf("(t.expires_at IS NULL OR t.expires_at > $%d)", len(args)))
	}

	query := transactionSelect +
		" WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY t.created_at DESC, t.id DESC"

	return r.queryTransactions(ctx, query, args...)
}

// ListExpiringTransactions returns the user's entries with an expiration in
// (from, to), newest first. The upper bound is never true for a NULL
// expiration, so deposits and purchases are not returned.
func (r *Repository) ListExpiringTransactions(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	query := transactionSelect + `
		WHERE t.user_id = $1
		  AND (t.expires_at > $2 OR t.expires_at IS NULL)
		  AND t.expires_at < $3
		ORDER BY t.created_at DESC, t.id DESC
	`
	return r.queryTransactions(ctx, query, userID, from, to)
}

// ListTransactionsSince returns course-linked entries created after since.
func (r *Repository) ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.Transaction, error) {
	query := transactionSelect + `
		WHERE t.course_id IS NOT NULL
		  AND t.created_at > $1
		ORDER BY c.code, t.created_at DESC
	`
	return r.queryTransactions(ctx, query, since)
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(
			&t.ID,
			&t.Type,
			&t.Amount,
			&t.UserID,
			&t.CourseID,
			&t.CourseCode,
			&t.CourseTitle,
			&t.CourseTier,
			&t.ExpiresAt,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}
