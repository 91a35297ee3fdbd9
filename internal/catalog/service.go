package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/pkg/ctxlog"
)

// MaxPrice is the exclusive upper bound of a course price.
var MaxPrice = decimal.New(1, 10)

// Service implements catalog business logic.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CourseInput holds the writable fields of a course.
type CourseInput struct {
	Code  string
	Title string
	Tier  domain.Tier
	Price *decimal.Decimal
}

// ListCourses returns all courses ordered by code.
func (s *Service) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.repo.ListCourses(ctx)
}

// GetCourse returns a course by code.
func (s *Service) GetCourse(ctx context.Context, code string) (*domain.Course, error) {
	return s.repo.GetCourseByCode(ctx, code)
}

// CreateCourse adds a course to the catalog.
func (s *Service) CreateCourse(ctx context.Context, input CourseInput) (*domain.Course, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	_, err := s.repo.GetCourseByCode(ctx, input.Code)
	if err == nil {
		return nil, ErrCodeExists
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("check course code: %w", err)
	}

	course := &domain.Course{
		Code:  input.Code,
		Title: input.Title,
		Tier:  input.Tier,
		Price: input.Price,
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	ctxlog.FromContext(ctx).Info("course created", "code", course.Code, "type", course.Tier)
	return course, nil
}

// UpdateCourse replaces the fields of the course identified by code.
// The code itself may change as long as the new one is free.
func (s *Service) UpdateCourse(ctx context.Context, code string, input CourseInput) (*domain.Course, error) {
	course, err := s.repo.GetCourseByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := validateInput(&input); err != nil {
		return nil, err
	}

	if input.Code != course.Code {
		_, err := s.repo.GetCourseByCode(ctx, input.Code)
		if err == nil {
			return nil, ErrCodeExists
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("check course code: %w", err)
		}
	}

	course.Code = input.Code
	course.Title = input.Title
	course.Tier = input.Tier
	course.Price = input.Price

	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}

	ctxlog.FromContext(ctx).Info("course updated", "code", course.Code, "previous_code", code)
	return course, nil
}

// validateInput enforces the tier and price rules and normalizes input.
// Free courses never carry a price.
func validateInput(input *CourseInput) error {
	input.Code = strings.TrimSpace(input.Code)
	input.Title = strings.TrimSpace(input.Title)

	if input.Code == "" {
		return ErrBlankCode
	}
	if input.Title == "" {
		return ErrBlankTitle
	}
	if !input.Tier.IsValid() {
		return ErrInvalidTier
	}
	if input.Price != nil && input.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if input.Price != nil && input.Price.GreaterThanOrEqual(MaxPrice) {
		return ErrPriceTooLarge
	}
	if input.Tier.IsPaid() && input.Price == nil {
		return ErrPriceRequired
	}
	if input.Tier == domain.TierFree {
		input.Price = nil
	}
	return nil
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrCourseNotFound)
}
