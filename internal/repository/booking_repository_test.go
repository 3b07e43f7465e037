package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minato-edu/tutoring-api/internal/models"
)

func overlapColumns() []string {
	return []string{"id", "package_id", "course_id", "session_date", "start_time", "end_time",
		"room", "teacher_id", "student_id", "created_at", "course_title", "teacher_name", "student_name"}
}

func TestBookingFindOverlapping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	date := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("b.session_date = $1 AND b.start_time < $3 AND b.end_time > $2")).
		WithArgs(date, "16:00", "17:30").
		WillReturnRows(sqlmock.NewRows(overlapColumns()).
			AddRow("b1", "p1", "c1", date, "16:30", "18:00", "Room A", "t1", "s1", now,
				"Algebra Intensive", "Aoi Sensei", "Mei Tanaka"))

	overlaps, err := repo.FindOverlapping(context.Background(), date, "16:00", "17:30")
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "Algebra Intensive", overlaps[0].CourseTitle)
	assert.Equal(t, "Room A", overlaps[0].Room)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingFindOverlappingNoMatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	date := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("b.session_date = $1")).
		WithArgs(date, "09:00", "10:00").
		WillReturnRows(sqlmock.NewRows(overlapColumns()))

	overlaps, err := repo.FindOverlapping(context.Background(), date, "09:00", "10:00")
	require.NoError(t, err)
	assert.Empty(t, overlaps)
}

func TestBookingBulkCreateFillsDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	date := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), "p1", "c1", date, "16:00", "17:30", "Room A", "t1", "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	bookings := []models.Booking{{
		PackageID: "p1",
		CourseID:  "c1",
		Date:      date,
		StartTime: "16:00",
		EndTime:   "17:30",
		Room:      "Room A",
		TeacherID: "t1",
		StudentID: "s1",
	}}
	require.NoError(t, repo.BulkCreate(context.Background(), tx, bookings))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, bookings[0].ID)
	assert.False(t, bookings[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
