package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/study-on/billing/internal/domain"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users          map[string]*domain.User
	createUserErr  error
	deleteUserErr  error
	getUserByEmail func(email string) (*domain.User, error)
	revokedFor     []string
	nextID         int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	if m.createUserErr != nil {
		return m.createUserErr
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	m.users[user.Email] = user
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.getUserByEmail != nil {
		return m.getUserByEmail(email)
	}
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockRepository) UpdateUser(_ context.Context, user *domain.User) error {
	m.users[user.Email] = user
	return nil
}

func (m *mockRepository) DeleteUser(_ context.Context, id string) error {
	if m.deleteUserErr != nil {
		return m.deleteUserErr
	}
	for email, u := range m.users {
		if u.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *mockRepository) SaveRefreshToken(_ context.Context, _ *domain.RefreshToken) error {
	return nil
}

func (m *mockRepository) GetRefreshToken(_ context.Context, _ string) (*domain.RefreshToken, error) {
	return nil, ErrInvalidToken
}

func (m *mockRepository) DeleteRefreshToken(_ context.Context, _ string) error {
	return nil
}

func (m *mockRepository) DeleteUserRefreshTokens(_ context.Context, userID string) error {
	m.revokedFor = append(m.revokedFor, userID)
	return nil
}

// mockAuthenticator implements Authenticator for testing.
type mockAuthenticator struct {
	validateErr error
}

func (m *mockAuthenticator) GenerateTokens(_ context.Context, _ *domain.User) (*TokenPair, error) {
	return &TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockAuthenticator) ValidateAccessToken(_ context.Context, token string) (string, []domain.Role, error) {
	if m.validateErr != nil {
		return "", nil, m.validateErr
	}
	return token, []domain.Role{domain.RoleUser}, nil
}

func (m *mockAuthenticator) RefreshTokens(_ context.Context, token string) (*TokenPair, error) {
	if token != "refresh" {
		return nil, ErrInvalidToken
	}
	return &TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

// mockUserCreatedHandler credits a fixed balance like the billing hook does.
type mockUserCreatedHandler struct {
	called       bool
	receivedUser *domain.User
	credit       decimal.Decimal
	err          error
}

func (m *mockUserCreatedHandler) OnUserCreated(_ context.Context, user *domain.User) error {
	m.called = true
	m.receivedUser = user
	if m.err != nil {
		return m.err
	}
	user.Balance = user.Balance.Add(m.credit)
	return nil
}

func TestRegister_CallsUserCreatedHandler(t *testing.T) {
	repo := newMockRepository()
	handler := &mockUserCreatedHandler{credit: decimal.NewFromInt(1000)}
	service := NewService(repo, &mockAuthenticator{}, handler)

	user, tokens, err := service.Register(context.Background(), RegisterInput{
		Email:    "Test@Example.com ",
		Password: "password123",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, handler.called, "handler should be called")
	assert.Equal(t, user.ID, handler.receivedUser.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, []domain.Role{domain.RoleUser}, user.Roles)
	assert.True(t, decimal.NewFromInt(1000).Equal(user.Balance))
	assert.Equal(t, "access", tokens.AccessToken)
	assert.Equal(t, "refresh", tokens.RefreshToken)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
}

func TestRegister_FailsIfHandlerFails(t *testing.T) {
	repo := newMockRepository()
	handler := &mockUserCreatedHandler{err: errors.New("deposit failed")}
	service := NewService(repo, &mockAuthenticator{}, handler)

	user, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "test@example.com",
		Password: "password123",
	})

	assert.Nil(t, user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deposit failed")
	assert.True(t, handler.called, "handler should still be called")
	assert.Empty(t, repo.users, "failed registration leaves no user behind")
}

func TestRegister_RetryAfterHandlerFailure(t *testing.T) {
	repo := newMockRepository()
	handler := &mockUserCreatedHandler{err: errors.New("db down"), credit: decimal.NewFromInt(1000)}
	service := NewService(repo, &mockAuthenticator{}, handler)
	input := RegisterInput{Email: "retry@example.com", Password: "password123"}

	_, _, err := service.Register(context.Background(), input)
	require.Error(t, err)

	handler.err = nil
	user, tokens, err := service.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "retry@example.com", user.Email)
	assert.True(t, decimal.NewFromInt(1000).Equal(user.Balance))
	assert.NotNil(t, tokens)
	assert.Len(t, repo.users, 1)
}

func TestRegister_UndoFailureIsReported(t *testing.T) {
	repo := newMockRepository()
	repo.deleteUserErr = errors.New("connection reset")
	handler := &mockUserCreatedHandler{err: errors.New("deposit failed")}
	service := NewService(repo, &mockAuthenticator{}, handler)

	_, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "test@example.com",
		Password: "password123",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deposit failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRegister_WorksWithNilHandler(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockAuthenticator{}, nil)

	user, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "test@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, "test@example.com", user.Email)
	assert.True(t, user.Balance.IsZero())
}

func TestRegister_EmailAlreadyExists(t *testing.T) {
	repo := newMockRepository()
	repo.users["existing@example.com"] = &domain.User{Email: "existing@example.com"}
	handler := &mockUserCreatedHandler{}
	service := NewService(repo, &mockAuthenticator{}, handler)

	user, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "existing@example.com",
		Password: "password123",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.False(t, handler.called, "handler should not be called for duplicate email")
	assert.Len(t, repo.users, 1)
}

func TestRegister_CreateUserFails(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("database error")
	handler := &mockUserCreatedHandler{}
	service := NewService(repo, &mockAuthenticator{}, handler)

	user, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "test@example.com",
		Password: "password123",
	})

	assert.Nil(t, user)
	assert.Error(t, err)
	assert.False(t, handler.called, "handler should not be called if user creation fails")
}

func TestLogin(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockAuthenticator{}, nil)

	_, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@gmail.com",
		Password: "password",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "user@gmail.com", password: "password"},
		{name: "case insensitive email", username: "USER@gmail.com", password: "password"},
		{name: "wrong password", username: "user@gmail.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "ghost@gmail.com", password: "password", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := service.Login(context.Background(), LoginInput{
				Username: tt.username,
				Password: tt.password,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user@gmail.com", user.Email)
			assert.Equal(t, "access", tokens.AccessToken)
		})
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.getUserByEmail = func(string) (*domain.User, error) {
		return nil, errors.New("connection refused")
	}
	service := NewService(repo, &mockAuthenticator{}, nil)

	_, _, err := service.Login(context.Background(), LoginInput{Username: "user@gmail.com", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokens(t *testing.T) {
	service := NewService(newMockRepository(), &mockAuthenticator{}, nil)

	pair, err := service.RefreshTokens(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", pair.RefreshToken)

	_, err = service.RefreshTokens(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCreateAdmin_NewUser(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockAuthenticator{}, nil)

	user, err := service.CreateAdmin(context.Background(), "admin@gmail.com", "password")
	require.NoError(t, err)

	assert.True(t, domain.IsAdmin(user.Roles))
	assert.True(t, domain.HasRole(user.Roles, domain.RoleUser))
	assert.Empty(t, repo.revokedFor)
}

func TestCreateAdmin_PromotesExistingUser(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, &mockAuthenticator{}, nil)

	existing, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@gmail.com",
		Password: "password",
	})
	require.NoError(t, err)

	user, err := service.CreateAdmin(context.Background(), "user@gmail.com", "new-password")
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleSuperAdmin}, user.Roles)
	assert.Equal(t, []string{existing.ID}, repo.revokedFor)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("new-password")))

	again, err := service.CreateAdmin(context.Background(), "user@gmail.com", "new-password")
	require.NoError(t, err)
	assert.Len(t, again.Roles, 2, "roles are a set")
}
