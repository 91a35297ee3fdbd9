// Package catalog provides HTTP handlers and business logic for the course catalog.
package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/pkg/httputil"
	"github.com/study-on/billing/internal/pkg/validation"
)

// Response messages.
const (
	MessageCourseNotFound = "No course found with this code."
	MessageCodeExists     = "Course code must be unique!"
	MessagePriceRequired  = "Change the course type or add a price!"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrCourseNotFound, Status: http.StatusUnauthorized, Message: MessageCourseNotFound},
	{Error: ErrCodeExists, Status: http.StatusUnauthorized, Message: MessageCodeExists, Field: "unique"},
	{Error: ErrPriceRequired, Status: http.StatusUnauthorized, Message: MessagePriceRequired},
	{Error: ErrInvalidTier, Status: http.StatusUnauthorized, Field: "type"},
	{Error: ErrInvalidPrice, Status: http.StatusUnauthorized, Field: "price"},
	{Error: ErrPriceTooLarge, Status: http.StatusUnauthorized, Field: "price"},
	{Error: ErrBlankCode, Status: http.StatusUnauthorized, Field: "code"},
	{Error: ErrBlankTitle, Status: http.StatusUnauthorized, Field: "title"},
}

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	validator *validation.Validator
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service, validator *validation.Validator) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

// RegisterPublicRoutes registers read-only catalog routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{code}", h.GetCourse)
}

// RegisterAdminRoutes registers catalog mutation routes (admin only).
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/courses/", h.CreateCourse)
	r.Post("/courses/{code}", h.UpdateCourse)
}

// CourseResponse is the public representation of a course.
type CourseResponse struct {
	Code  string   `json:"code"`
	Type  string   `json:"type"`
	Price *float64 `json:"price,omitempty"`
}

// NewCourseResponse converts a course to its response form.
func NewCourseResponse(c *domain.Course) CourseResponse {
	resp := CourseResponse{
		Code: c.Code,
		Type: string(c.Tier),
	}
	if c.Price != nil {
		price := c.Price.InexactFloat64()
		resp.Price = &price
	}
	return resp
}

// CourseRequest is the body of course create and edit requests.
type CourseRequest struct {
	Type  string   `json:"type" validate:"required,course_tier"`
	Title string   `json:"title" validate:"required,min=3,max=255"`
	Code  string   `json:"code" validate:"required,max=255"`
	Price *float64 `json:"price" validate:"omitempty,gte=0,lt=10000000000"`
}

// Normalize trims the text fields so blank values fail validation.
func (r *CourseRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
	r.Title = strings.TrimSpace(r.Title)
	r.Type = strings.TrimSpace(r.Type)
}

// ToInput converts the request to service input.
func (r *CourseRequest) ToInput() CourseInput {
	input := CourseInput{
		Code:  r.Code,
		Title: r.Title,
		Tier:  domain.Tier(r.Type),
	}
	if r.Price != nil {
		price := decimal.NewFromFloat(*r.Price)
		input.Price = &price
	}
	return input
}

// SuccessResponse acknowledges a catalog mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListCourses handles GET /courses.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	resp := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		resp = append(resp, NewCourseResponse(&courses[i]))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// GetCourse handles GET /courses/{code}.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.GetCourse(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, NewCourseResponse(course))
}

// CreateCourse handles POST /courses/.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	req.Normalize()
	if fields := h.validator.Struct(req); fields != nil {
		httputil.FieldErrors(w, fields)
		return
	}

	if _, err := h.service.CreateCourse(r.Context(), req.ToInput()); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, SuccessResponse{Success: true})
}

// UpdateCourse handles POST /courses/{code}.
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	// An unknown course is reported before any body validation.
	if _, err := h.service.GetCourse(r.Context(), code); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	var req CourseRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	req.Normalize()
	if fields := h.validator.Struct(req); fields != nil {
		httputil.FieldErrors(w, fields)
		return
	}

	if _, err := h.service.UpdateCourse(r.Context(), code, req.ToInput()); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, SuccessResponse{Success: true})
}
