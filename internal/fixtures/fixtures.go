// Package fixtures seeds a development database with demo users, courses and
// ledger entries.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/billing"
	"github.com/study-on/billing/internal/catalog"
	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/identity"
)

// Demo accounts. Both use Password.
const (
	UserEmail  = "user@gmail.com"
	AdminEmail = "admin@gmail.com"
	Password   = "password"
)

// AdminDeposit is the opening balance of the demo admin.
var AdminDeposit = decimal.NewFromInt(1000000)

// Courses are the demo catalog entries.
var Courses = []catalog.CourseInput{
	{Code: "Python-1", Title: "Python from scratch", Tier: domain.TierFree},
	{Code: "Java-1", Title: "Java developer", Tier: domain.TierRent, Price: price(2000)},
	{Code: "SQL-1", Title: "SQL developer", Tier: domain.TierBuy, Price: price(25000)},
}

// Users creates accounts.
type Users interface {
	Register(ctx context.Context, input identity.RegisterInput) (*domain.User, *identity.TokenPair, error)
	CreateAdmin(ctx context.Context, email, password string) (*domain.User, error)
}

// Catalog creates and reads courses.
type Catalog interface {
	CreateCourse(ctx context.Context, input catalog.CourseInput) (*domain.Course, error)
	GetCourse(ctx context.Context, code string) (*domain.Course, error)
}

// Ledger writes and reads ledger entries.
type Ledger interface {
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Transaction, error)
	Record(ctx context.Context, entry *domain.Transaction) error
	ListTransactions(ctx context.Context, filter billing.TransactionFilter) ([]domain.Transaction, error)
}

// Loader seeds fixtures. Loading twice does not duplicate data.
type Loader struct {
	users   Users
	catalog Catalog
	ledger  Ledger
	now     func() time.Time
}

// NewLoader creates a fixture loader.
func NewLoader(users Users, courses Catalog, ledger Ledger) *Loader {
	return &Loader{
		users:   users,
		catalog: courses,
		ledger:  ledger,
		now:     time.Now,
	}
}

// Result counts what Load created.
type Result struct {
	Users        int
	Courses      int
	Transactions int
}

// Load creates the demo accounts, catalog and admin ledger.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	var result Result

	_, _, err := l.users.Register(ctx, identity.RegisterInput{Email: UserEmail, Password: Password})
	switch {
	case err == nil:
		result.Users++
	case errors.Is(err, identity.ErrEmailExists):
		slog.Info("fixture user exists, skipping", "email", UserEmail)
	default:
		return result, fmt.Errorf("register %s: %w", UserEmail, err)
	}

	admin, err := l.users.CreateAdmin(ctx, AdminEmail, Password)
	if err != nil {
		return result, fmt.Errorf("create admin: %w", err)
	}
	result.Users++

	courses := make(map[string]*domain.Course, len(Courses))
	for _, input := range Courses {
		course, err := l.catalog.CreateCourse(ctx, input)
		if errors.Is(err, catalog.ErrCodeExists) {
			course, err = l.catalog.GetCourse(ctx, input.Code)
		} else if err == nil {
			result.Courses++
		}
		if err != nil {
			return result, fmt.Errorf("course %s: %w", input.Code, err)
		}
		courses[course.Code] = course
	}

	existing, err := l.ledger.ListTransactions(ctx, billing.TransactionFilter{UserID: admin.ID})
	if err != nil {
		return result, fmt.Errorf("list admin transactions: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("admin ledger already seeded, skipping", "transactions", len(existing))
		return result, nil
	}

	if _, err := l.ledger.Deposit(ctx, admin.ID, AdminDeposit); err != nil {
		return result, fmt.Errorf("admin deposit: %w", err)
	}
	result.Transactions++

	for _, entry := range l.adminLedger(admin.ID, courses) {
		if err := l.ledger.Record(ctx, entry); err != nil {
			return result, fmt.Errorf("record transaction: %w", err)
		}
		result.Transactions++
	}

	return result, nil
}

// adminLedger returns one expired rental, one rental expiring within a day,
// a purchase and a deposit.
func (l *Loader) adminLedger(adminID string, courses map[string]*domain.Course) []*domain.Transaction {
	now := l.now().UTC().Truncate(time.Second)
	old := time.Date(2023, 2, 16, 7, 24, 10, 0, time.UTC)

	java := courses["Java-1"]
	sql := courses["SQL-1"]

	return []*domain.Transaction{
		payment(adminID, java, old, ptr(old.Add(domain.RentDuration))),
		payment(adminID, java, now, ptr(now.Add(24*time.Hour))),
		payment(adminID, sql, now.Add(3*24*time.Hour), nil),
		{
			Type:      domain.TransactionTypeDeposit,
			Amount:    decimal.NewFromInt(50000),
			UserID:    adminID,
			CreatedAt: now,
		},
	}
}

func payment(userID string, course *domain.Course, createdAt time.Time, expiresAt *time.Time) *domain.Transaction {
	courseID := course.ID
	return &domain.Transaction{
		Type:      domain.TransactionTypePayment,
		Amount:    course.PriceOrZero(),
		UserID:    userID,
		CourseID:  &courseID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func ptr(t time.Time) *time.Time {
	return &t
}
