package billing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/domain"
)

// Repository defines ledger and balance data access.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	// GetUserForUpdateTx reads the user and locks the row until tx ends.
	GetUserForUpdateTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.User, error)
	// AddBalanceTx adds delta to the user's balance and returns the new balance.
	AddBalanceTx(ctx context.Context, tx pgx.Tx, userID string, delta decimal.Decimal) (decimal.Decimal, error)
	CreateTransactionTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error

	ListTransactions(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	ListExpiringTransactions(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error)
	ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.Transaction, error)
}

// CourseReader looks up courses by code.
type CourseReader interface {
	GetCourse(ctx context.Context, code string) (*domain.Course, error)
}

// TransactionFilter narrows a user's ledger. Nil fields do not filter.
type TransactionFilter struct {
	UserID      string
	Type        *domain.TransactionType
	CourseCode  *string
	SkipExpired bool
	// Now is the reference time for SkipExpired.
	Now time.Time
}
