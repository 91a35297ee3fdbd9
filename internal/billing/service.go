// Package billing implements balance mutations and ledger queries.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/pkg/ctxlog"
)

// ExpiringWindow is how far ahead rentals count as expiring.
const ExpiringWindow = 24 * time.Hour

// Config contains billing settings.
type Config struct {
	// WelcomeDeposit is credited on registration. Zero disables it.
	WelcomeDeposit decimal.Decimal
}

// Service implements billing business logic.
type Service struct {
	repo    Repository
	courses CourseReader
	config  Config
	now     func() time.Time
}

// NewService creates a new billing service.
func NewService(repo Repository, courses CourseReader, config Config) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		config:  config,
		now:     time.Now,
	}
}

// PayResult describes a committed payment.
type PayResult struct {
	Transaction *domain.Transaction
	Tier        domain.Tier
	ExpiresAt   *time.Time
}

// Pay charges the user for the course identified by code. The balance check
// runs against the locked user row, so concurrent payments cannot overdraw.
func (s *Service) Pay(ctx context.Context, userID, courseCode string) (*PayResult, error) {
	course, err := s.courses.GetCourse(ctx, courseCode)
	if err != nil {
		return nil, err
	}
	if !course.Tier.IsPaid() {
		return nil, ErrFreeCourse
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	user, err := s.repo.GetUserForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	price := course.PriceOrZero()
	if user.Balance.LessThan(price) {
		return nil, ErrInsufficientFunds
	}

	now := s.timestamp()
	courseID := course.ID
	entry := &domain.Transaction{
		Type:      domain.TransactionTypePayment,
		Amount:    price,
		UserID:    user.ID,
		CourseID:  &courseID,
		CreatedAt: now,
	}
	if course.Tier == domain.TierRent {
		expiresAt := now.Add(domain.RentDuration)
		entry.ExpiresAt = &expiresAt
	}

	if _, err := s.repo.AddBalanceTx(ctx, tx, user.ID, price.Neg()); err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}
	if err := s.repo.CreateTransactionTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	code, title, tier := course.Code, course.Title, course.Tier
	entry.CourseCode = &code
	entry.CourseTitle = &title
	entry.CourseTier = &tier

	paymentsTotal.WithLabelValues(string(course.Tier)).Inc()
	ctxlog.FromContext(ctx).Info("course paid",
		"user_id", user.ID,
		"course", course.Code,
		"amount", price.String(),
		"transaction_id", entry.ID,
	)

	return &PayResult{
		Transaction: entry,
		Tier:        course.Tier,
		ExpiresAt:   entry.ExpiresAt,
	}, nil
}

// Deposit credits amount to the user's balance.
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	balance, err := s.repo.AddBalanceTx(ctx, tx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}

	entry := &domain.Transaction{
		Type:      domain.TransactionTypeDeposit,
		Amount:    amount,
		UserID:    userID,
		CreatedAt: s.timestamp(),
	}
	if err := s.repo.CreateTransactionTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create deposit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	depositsTotal.Inc()
	ctxlog.FromContext(ctx).Info("deposit made",
		"user_id", userID,
		"amount", amount.String(),
		"balance", balance.String(),
	)

	return entry, nil
}

// Record appends a prepared entry and applies its balance delta in one
// transaction. CreatedAt and ExpiresAt are kept as given, which allows
// importing historical entries.
func (s *Service) Record(ctx context.Context, entry *domain.Transaction) error {
	if !entry.Type.IsValid() {
		return fmt.Errorf("unknown transaction type %q", entry.Type)
	}
	if !entry.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.timestamp()
	}

	delta := entry.Amount
	if entry.Type == domain.TransactionTypePayment {
		delta = delta.Neg()
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := s.repo.AddBalanceTx(ctx, tx, entry.UserID, delta); err != nil {
		return fmt.Errorf("apply balance: %w", err)
	}
	if err := s.repo.CreateTransactionTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	return tx.Commit(ctx)
}

// OnUserCreated credits the welcome deposit to a new user.
// It implements identity.UserCreatedHandler.
func (s *Service) OnUserCreated(ctx context.Context, user *domain.User) error {
	if !s.config.WelcomeDeposit.IsPositive() {
		return nil
	}
	if _, err := s.Deposit(ctx, user.ID, s.config.WelcomeDeposit); err != nil {
		return fmt.Errorf("welcome deposit: %w", err)
	}
	return nil
}

// ListTransactions returns the user's ledger newest first.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	if filter.Now.IsZero() {
		filter.Now = s.now()
	}
	return s.repo.ListTransactions(ctx, filter)
}

// ListExpiringTransactions returns the user's entries expiring within
// ExpiringWindow of now, newest first. Entries without an expiration never
// fall inside the window.
func (s *Service) ListExpiringTransactions(ctx context.Context, userID string, now time.Time) ([]domain.Transaction, error) {
	return s.repo.ListExpiringTransactions(ctx, userID, now, now.Add(ExpiringWindow))
}

// ListTransactionsSince returns course-linked entries created after since.
func (s *Service) ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.Transaction, error) {
	return s.repo.ListTransactionsSince(ctx, since)
}

// timestamp returns the current time at database precision.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
