package identity

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/pkg/httputil"
	"github.com/study-on/billing/internal/pkg/validation"
)

// Response messages.
const (
	MessageEmailExists         = "A user with this email already exists."
	MessageInvalidCredentials  = "Invalid credentials."
	MessageRefreshTokenInvalid = "JWT Refresh Token Not Found"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrEmailExists, Status: http.StatusUnauthorized, Message: MessageEmailExists, Field: "unique"},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: MessageInvalidCredentials},
	{Error: ErrInvalidToken, Status: http.StatusUnauthorized, Message: MessageRefreshTokenInvalid},
	{Error: ErrTokenExpired, Status: http.StatusUnauthorized, Message: MessageRefreshTokenInvalid},
}

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validation.Validator
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service, validator *validation.Validator) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

// RegisterRoutes registers public identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth", h.Login)
	r.Post("/register", h.Register)
	r.Post("/token/refresh", h.Refresh)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/users/current", h.CurrentUser)
}

// CredentialsRequest is the body of /auth and /register.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// TokenResponse is returned by /auth and /token/refresh.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterResponse is returned by /register.
type RegisterResponse struct {
	Token        string        `json:"token"`
	Roles        []domain.Role `json:"roles"`
	Balance      float64       `json:"balance"`
	RefreshToken string        `json:"refresh_token"`
}

// CurrentUserResponse is returned by /users/current.
type CurrentUserResponse struct {
	Code     int           `json:"code"`
	Username string        `json:"username"`
	Roles    []domain.Role `json:"roles"`
	Balance  float64       `json:"balance"`
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if fields := h.validator.Struct(req); fields != nil {
		httputil.FieldErrors(w, fields)
		return
	}

	user, tokens, err := h.service.Register(r.Context(), RegisterInput{
		Email:    req.Username,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, RegisterResponse{
		Token:        tokens.AccessToken,
		Roles:        user.Roles,
		Balance:      user.Balance.InexactFloat64(),
		RefreshToken: tokens.RefreshToken,
	})
}

// Login handles POST /auth.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	_, tokens, err := h.service.Login(r.Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, TokenResponse{
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// RefreshRequest is the body of /token/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /token/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		httputil.Error(w, http.StatusUnauthorized, MessageRefreshTokenInvalid)
		return
	}

	tokens, err := h.service.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, TokenResponse{
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// CurrentUser handles GET /users/current.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, httputil.MessageTokenNotFound)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		// A token for a vanished user is reported in the body with HTTP 200.
		httputil.JSON(w, http.StatusOK, httputil.ErrorBody{
			Code:    http.StatusUnauthorized,
			Message: httputil.MessageTokenNotFound,
		})
		return
	}
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, CurrentUserResponse{
		Code:     http.StatusOK,
		Username: user.Email,
		Roles:    user.Roles,
		Balance:  user.Balance.InexactFloat64(),
	})
}
