package billing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/study-on/billing/internal/catalog"
	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/pkg/httputil"
)

// TimeLayout formats ledger timestamps: UTC, no offset.
const TimeLayout = "2006-01-02T15:04:05"

// Response messages.
const (
	MessageFreeCourse        = "This course is free."
	MessageInsufficientFunds = "There are not enough funds in your account."
)

var errorMappings = []httputil.ErrorMapping{
	{Error: catalog.ErrCourseNotFound, Status: http.StatusUnauthorized, Message: catalog.MessageCourseNotFound},
	{Error: ErrFreeCourse, Status: http.StatusNotAcceptable, Message: MessageFreeCourse},
	{Error: ErrInsufficientFunds, Status: http.StatusNotAcceptable, Message: MessageInsufficientFunds},
	{Error: ErrUserNotFound, Status: http.StatusUnauthorized, Message: httputil.MessageInvalidToken},
}

// Handler handles HTTP requests for the billing module.
type Handler struct {
	service *Service
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers billing routes. All of them require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/courses/{code}/pay", h.Pay)
	r.Get("/transactions", h.ListTransactions)
}

// PayResponse is returned by the pay endpoint.
type PayResponse struct {
	Success    bool    `json:"success"`
	CourseType string  `json:"course_type"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}

// TransactionResponse is the public representation of a ledger entry.
type TransactionResponse struct {
	ID         int64   `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Type       string  `json:"type"`
	CourseCode *string `json:"course_code,omitempty"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
	Amount     float64 `json:"amount"`
}

// NewTransactionResponse converts a ledger entry to its response form.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        t.ID,
		CreatedAt: formatTime(t.CreatedAt),
		Type:      string(t.Type),
		Amount:    t.Amount.InexactFloat64(),
	}
	if t.Type == domain.TransactionTypePayment {
		resp.CourseCode = t.CourseCode
	}
	if t.ExpiresAt != nil {
		s := formatTime(*t.ExpiresAt)
		resp.ExpiresAt = &s
	}
	return resp
}

// Pay handles POST /courses/{code}/pay.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, httputil.MessageTokenNotFound)
		return
	}

	result, err := h.service.Pay(r.Context(), userID, chi.URLParam(r, "code"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	resp := PayResponse{
		Success:    true,
		CourseType: string(result.Tier),
	}
	if result.ExpiresAt != nil {
		s := formatTime(*result.ExpiresAt)
		resp.ExpiresAt = &s
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// ListTransactions handles GET /transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, httputil.MessageTokenNotFound)
		return
	}

	filter := ParseTransactionFilter(r)
	filter.UserID = userID

	transactions, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	resp := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		resp = append(resp, NewTransactionResponse(&transactions[i]))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// ParseTransactionFilter reads type, course_code and skip_expired from the
// query string. Unknown types are ignored. skip_expired is false for an
// empty value, "0" and "false".
func ParseTransactionFilter(r *http.Request) TransactionFilter {
	q := r.URL.Query()

	var filter TransactionFilter

	if t := domain.TransactionType(q.Get("type")); t.IsValid() {
		filter.Type = &t
	}
	if code := q.Get("course_code"); code != "" {
		filter.CourseCode = &code
	}
	switch q.Get("skip_expired") {
	case "", "0", "false":
	default:
		filter.SkipExpired = true
	}

	return filter
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
