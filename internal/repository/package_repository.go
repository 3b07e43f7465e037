package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// PackageRepository handles persistence of enrollment packages.
type PackageRepository struct {
	db *sqlx.DB
}

// NewPackageRepository constructs the repository.
func NewPackageRepository(db *sqlx.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// Create inserts a package head within the caller's transaction.
func (r *PackageRepository) Create(ctx context.Context, tx *sqlx.Tx, pkg *models.EnrollmentPackage) error {
	const query = `INSERT INTO enrollment_packages (id, course_id, teacher_id, room, remark, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, query, pkg.ID, pkg.CourseID, pkg.TeacherID, pkg.Room, pkg.Remark, pkg.CreatedAt); err != nil {
		return fmt.Errorf("insert enrollment package: %w", err)
	}
	return nil
}

// FindByID returns a package by its ID.
func (r *PackageRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentPackage, error) {
	const query = `SELECT id, course_id, COALESCE(teacher_id, '') AS teacher_id, room, remark, created_at
        FROM enrollment_packages WHERE id = $1`
	var pkg models.EnrollmentPackage
	if err := r.db.GetContext(ctx, &pkg, query, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}
