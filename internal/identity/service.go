// Package identity handles registration, authentication and token refresh.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/pkg/ctxlog"
)

// Service implements identity business logic.
type Service struct {
	repo          Repository
	authenticator Authenticator
	onUserCreated UserCreatedHandler
}

// NewService creates a new identity service. onUserCreated may be nil.
func NewService(repo Repository, authenticator Authenticator, onUserCreated UserCreatedHandler) *Service {
	return &Service{
		repo:          repo,
		authenticator: authenticator,
		onUserCreated: onUserCreated,
	}
}

// RegisterInput holds registration data.
type RegisterInput struct {
	Email    string
	Password string
}

// Register creates a user with ROLE_USER, runs the user-created hook and
// issues tokens. The returned user reflects any balance set by the hook.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, *TokenPair, error) {
	email := normalizeEmail(input.Email)

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Email:    email,
		Password: hash,
		Roles:    []domain.Role{domain.RoleUser},
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)

	if s.onUserCreated != nil {
		if err := s.onUserCreated.OnUserCreated(ctx, user); err != nil {
			return nil, nil, s.undoRegistration(ctx, user, fmt.Errorf("on user created: %w", err))
		}
		user, err = s.repo.GetUserByID(ctx, user.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("reload user: %w", err)
		}
	}

	tokens, err := s.authenticator.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	return user, tokens, nil
}

// undoRegistration removes a user whose registration could not complete so
// the email can be registered again. It returns cause, joined with any
// cleanup failure.
func (s *Service) undoRegistration(ctx context.Context, user *domain.User, cause error) error {
	logger := ctxlog.FromContext(ctx)
	if err := s.repo.DeleteUser(context.WithoutCancel(ctx), user.ID); err != nil {
		logger.Error("failed to undo registration", "user_id", user.ID, "error", err)
		return errors.Join(cause, fmt.Errorf("undo registration: %w", err))
	}
	logger.Warn("registration undone", "user_id", user.ID, "error", cause)
	return cause
}

// LoginInput holds login credentials. Username is the user's email.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues tokens.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, *TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(input.Username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.authenticator.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	return user, tokens, nil
}

// RefreshTokens exchanges a refresh token for a new token pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.authenticator.RefreshTokens(ctx, refreshToken)
}

// ValidateToken validates an access token for the auth middleware.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, []domain.Role, error) {
	return s.authenticator.ValidateAccessToken(ctx, token)
}

// GetUserByID returns a user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// CreateAdmin creates a super-admin or promotes an existing user and resets
// their password. Existing refresh tokens of a promoted user are revoked.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user = &domain.User{
			Email:    email,
			Password: hash,
			Roles:    []domain.Role{domain.RoleUser, domain.RoleSuperAdmin},
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return user, nil
	case err != nil:
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Password = hash
	if !domain.IsAdmin(user.Roles) {
		user.Roles = append(user.Roles, domain.RoleSuperAdmin)
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := s.repo.DeleteUserRefreshTokens(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh tokens: %w", err)
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
