package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// TeacherRepository handles persistence of teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Search performs a type-ahead lookup by name or nickname.
func (r *TeacherRepository) Search(ctx context.Context, query string, limit int) ([]models.Teacher, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT id, full_name, nickname, active, created_at, updated_at
        FROM teachers WHERE active = TRUE AND (full_name ILIKE $1 OR nickname ILIKE $1)
        ORDER BY full_name LIMIT %d`, limit)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, q, "%"+query+"%"); err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a teacher by its ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, nickname, active, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}
