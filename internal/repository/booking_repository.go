package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// BookingRepository handles persistence of session bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// FindOverlapping returns bookings on the given date whose time range overlaps
// [startTime, endTime), enriched with course/teacher/student labels. Times are
// zero-padded HH:MM strings, so lexicographic comparison is sound.
func (r *BookingRepository) FindOverlapping(ctx context.Context, date time.Time, startTime, endTime string) ([]models.BookingOverlap, error) {
	const query = `SELECT b.id, b.package_id, b.course_id, b.session_date, b.start_time, b.end_time,
        b.room, b.teacher_id, b.student_id, b.created_at,
        c.title AS course_title,
        COALESCE(t.full_name, '') AS teacher_name,
        s.full_name AS student_name
        FROM bookings b
        JOIN courses c ON c.id = b.course_id
        LEFT JOIN teachers t ON t.id = b.teacher_id
        JOIN students s ON s.id = b.student_id
        WHERE b.session_date = $1 AND b.start_time < $3 AND b.end_time > $2`

	var overlaps []models.BookingOverlap
	if err := r.db.SelectContext(ctx, &overlaps, query, date, startTime, endTime); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return overlaps, nil
}

// BulkCreate inserts bookings within the caller's transaction.
func (r *BookingRepository) BulkCreate(ctx context.Context, tx *sqlx.Tx, bookings []models.Booking) error {
	const query = `INSERT INTO bookings (id, package_id, course_id, session_date, start_time, end_time, room, teacher_id, student_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)`
	now := time.Now().UTC()
	for i := range bookings {
		b := &bookings[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, query, b.ID, b.PackageID, b.CourseID, b.Date, b.StartTime, b.EndTime, b.Room, b.TeacherID, b.StudentID, b.CreatedAt); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
	}
	return nil
}
