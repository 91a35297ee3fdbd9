package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-on/billing/internal/billing"
	"github.com/study-on/billing/internal/catalog"
	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/identity"
)

type mockUsers struct {
	users map[string]*domain.User
}

func (m *mockUsers) Register(_ context.Context, input identity.RegisterInput) (*domain.User, *identity.TokenPair, error) {
	if _, ok := m.users[input.Email]; ok {
		return nil, nil, identity.ErrEmailExists
	}
	u := &domain.User{ID: "id-" + input.Email, Email: input.Email, Roles: []domain.Role{domain.RoleUser}}
	m.users[input.Email] = u
	return u, &identity.TokenPair{}, nil
}

func (m *mockUsers) CreateAdmin(_ context.Context, email, _ string) (*domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		u = &domain.User{ID: "id-" + email, Email: email}
		m.users[email] = u
	}
	u.Roles = []domain.Role{domain.RoleSuperAdmin}
	return u, nil
}

type mockCatalog struct {
	courses map[string]*domain.Course
}

func (m *mockCatalog) CreateCourse(_ context.Context, input catalog.CourseInput) (*domain.Course, error) {
	if _, ok := m.courses[input.Code]; ok {
		return nil, catalog.ErrCodeExists
	}
	c := &domain.Course{ID: "c-" + input.Code, Code: input.Code, Title: input.Title, Tier: input.Tier, Price: input.Price}
	m.courses[input.Code] = c
	return c, nil
}

func (m *mockCatalog) GetCourse(_ context.Context, code string) (*domain.Course, error) {
	if c, ok := m.courses[code]; ok {
		return c, nil
	}
	return nil, catalog.ErrCourseNotFound
}

type mockLedger struct {
	entries  []domain.Transaction
	balances map[string]decimal.Decimal
}

func (m *mockLedger) Deposit(_ context.Context, userID string, amount decimal.Decimal) (*domain.Transaction, error) {
	entry := domain.Transaction{Type: domain.TransactionTypeDeposit, Amount: amount, UserID: userID}
	m.entries = append(m.entries, entry)
	m.balances[userID] = m.balances[userID].Add(amount)
	return &entry, nil
}

func (m *mockLedger) Record(_ context.Context, entry *domain.Transaction) error {
	m.entries = append(m.entries, *entry)
	delta := entry.Amount
	if entry.Type == domain.TransactionTypePayment {
		delta = delta.Neg()
	}
	m.balances[entry.UserID] = m.balances[entry.UserID].Add(delta)
	return nil
}

func (m *mockLedger) ListTransactions(_ context.Context, filter billing.TransactionFilter) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for _, e := range m.entries {
		if e.UserID == filter.UserID {
			result = append(result, e)
		}
	}
	return result, nil
}

func newTestLoader() (*Loader, *mockUsers, *mockCatalog, *mockLedger) {
	users := &mockUsers{users: make(map[string]*domain.User)}
	courses := &mockCatalog{courses: make(map[string]*domain.Course)}
	ledger := &mockLedger{balances: make(map[string]decimal.Decimal)}

	l := NewLoader(users, courses, ledger)
	l.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	return l, users, courses, ledger
}

func TestLoader_Load(t *testing.T) {
	l, users, courses, ledger := newTestLoader()

	result, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Users: 2, Courses: 3, Transactions: 5}, result)

	require.Contains(t, users.users, AdminEmail)
	assert.True(t, domain.IsAdmin(users.users[AdminEmail].Roles))
	assert.Contains(t, users.users, UserEmail)

	assert.Equal(t, domain.TierFree, courses.courses["Python-1"].Tier)
	assert.Nil(t, courses.courses["Python-1"].Price)

	adminID := users.users[AdminEmail].ID
	// 1,000,000 + 50,000 - 2,000 - 2,000 - 25,000
	assert.True(t, decimal.NewFromInt(1021000).Equal(ledger.balances[adminID]))

	var rentals int
	for _, e := range ledger.entries {
		if e.ExpiresAt != nil {
			rentals++
			assert.Equal(t, domain.TransactionTypePayment, e.Type)
		}
	}
	assert.Equal(t, 2, rentals)
}

func TestLoader_Load_Idempotent(t *testing.T) {
	l, _, courses, ledger := newTestLoader()

	_, err := l.Load(context.Background())
	require.NoError(t, err)

	result, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Users: 1}, result)
	assert.Len(t, courses.courses, 3)
	assert.Len(t, ledger.entries, 5)
}
