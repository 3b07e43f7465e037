package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Search performs a type-ahead lookup by title.
func (r *CourseRepository) Search(ctx context.Context, query string, limit int) ([]models.Course, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT id, title, class_type, tuition_fee, required_dates, active, created_at, updated_at
        FROM courses WHERE active = TRUE AND title ILIKE $1 ORDER BY title LIMIT %d`, limit)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, q, "%"+query+"%"); err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, class_type, tuition_fee, required_dates, active, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
