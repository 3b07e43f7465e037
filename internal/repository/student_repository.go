package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Search performs a type-ahead lookup over the given field. Supported fields
// are full_name, nickname and phone; anything else falls back to full_name.
func (r *StudentRepository) Search(ctx context.Context, query, field string, limit int) ([]models.Student, error) {
	column := searchColumn(field)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT id, full_name, nickname, phone, active, created_at, updated_at
        FROM students WHERE active = TRUE AND %s ILIKE $1 ORDER BY full_name LIMIT %d`, column, limit)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, q, "%"+query+"%"); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, nickname, phone, active, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByIDs returns the students matching the provided ids.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, nickname, phone, active, created_at, updated_at FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build student id query: %w", err)
	}
	query = r.db.Rebind(query)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("find students by ids: %w", err)
	}
	return students, nil
}

func searchColumn(field string) string {
	switch strings.ToLower(field) {
	case "nickname":
		return "nickname"
	case "phone":
		return "phone"
	default:
		return "full_name"
	}
}
