// Package jwt issues HS256 access tokens and rotating refresh tokens.
package jwt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/identity"
)

const refreshTokenBytes = 32

// Config contains token settings.
type Config struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// Claims are the access token claims.
type Claims struct {
	Username string        `json:"username"`
	Roles    []domain.Role `json:"roles"`
	gojwt.RegisteredClaims
}

// Authenticator implements identity.Authenticator.
type Authenticator struct {
	config Config
	store  TokenStore
	now    func() time.Time
}

// NewAuthenticator creates a JWT authenticator.
func NewAuthenticator(config Config, store TokenStore) *Authenticator {
	return &Authenticator{
		config: config,
		store:  store,
		now:    time.Now,
	}
}

// GenerateTokens issues an access token and stores a new refresh token.
func (a *Authenticator) GenerateTokens(ctx context.Context, user *domain.User) (*identity.TokenPair, error) {
	now := a.now()

	claims := Claims{
		Username: user.Email,
		Roles:    user.Roles,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(a.config.AccessTokenDuration)),
		},
	}

	accessToken, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(a.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	if err := a.store.SaveRefreshToken(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(a.config.RefreshTokenDuration),
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &identity.TokenPair{AccessToken: accessToken, RefreshToken: refresh}, nil
}

// ValidateAccessToken parses the token and returns its subject and roles.
func (a *Authenticator) ValidateAccessToken(_ context.Context, token string) (string, []domain.Role, error) {
	var claims Claims
	parsed, err := gojwt.ParseWithClaims(token, &claims, func(t *gojwt.Token) (interface{}, error) {
		return []byte(a.config.SecretKey), nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return "", nil, identity.ErrTokenExpired
		}
		return "", nil, identity.ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", nil, identity.ErrInvalidToken
	}

	return claims.Subject, claims.Roles, nil
}

// RefreshTokens rotates a refresh token: the old one is deleted and a new
// pair is issued for its owner.
func (a *Authenticator) RefreshTokens(ctx context.Context, refreshToken string) (*identity.TokenPair, error) {
	stored, err := a.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, identity.ErrInvalidToken
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	if err := a.store.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("delete refresh token: %w", err)
	}

	if stored.IsExpired(a.now()) {
		return nil, identity.ErrTokenExpired
	}

	user, err := a.store.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return a.GenerateTokens(ctx, user)
}

func randomToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
