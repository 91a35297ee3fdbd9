// Package postgres provides PostgreSQL implementation of the catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/study-on/billing/internal/catalog"
	"github.com/study-on/billing/internal/domain"
)

const uniqueViolation = "23505"

// Repository implements the catalog.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateCourse inserts a course.
func (r *Repository) CreateCourse(ctx context.Context, course *domain.Course) error {
	query := `
		INSERT INTO courses (code, title, type, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		course.Code,
		course.Title,
		course.Tier,
		course.Price,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrCodeExists
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// GetCourseByCode retrieves a course by its code.
func (r *Repository) GetCourseByCode(ctx context.Context, code string) (*domain.Course, error) {
	query := `
		SELECT id, code, title, type, price, created_at, updated_at
		FROM courses
		WHERE code = $1
	`
	course, err := scanCourse(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course by code: %w", err)
	}
	return course, nil
}

// ListCourses retrieves all courses ordered by code.
func (r *Repository) ListCourses(ctx context.Context) ([]domain.Course, error) {
	query := `
		SELECT id, code, title, type, price, created_at, updated_at
		FROM courses
		ORDER BY code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]domain.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

// UpdateCourse updates a course by ID.
func (r *Repository) UpdateCourse(ctx context.Context, course *domain.Course) error {
	query := `
		UPDATE courses
		SET code = $2, title = $3, type = $4, price = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		course.ID,
		course.Code,
		course.Title,
		course.Tier,
		course.Price,
	).Scan(&course.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ErrCourseNotFound
		}
		if isUniqueViolation(err) {
			return catalog.ErrCodeExists
		}
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var course domain.Course
	err := row.Scan(
		&course.ID,
		&course.Code,
		&course.Title,
		&course.Tier,
		&course.Price,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
