package catalog

import (
	"context"

	"github.com/study-on/billing/internal/domain"
)

// Repository defines the interface for catalog data operations.
type Repository interface {
	CreateCourse(ctx context.Context, course *domain.Course) error
	GetCourseByCode(ctx context.Context, code string) (*domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	UpdateCourse(ctx context.Context, course *domain.Course) error
}
