package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minato-edu/tutoring-api/internal/models"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
)

type mockStudentReader struct {
	students map[string]models.Student
	err      error
}

func (m *mockStudentReader) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

type mockTeacherReader struct {
	teachers map[string]*models.Teacher
}

func (m *mockTeacherReader) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

type mockPackageCreator struct {
	created *models.EnrollmentPackage
	err     error
}

func (m *mockPackageCreator) Create(ctx context.Context, tx *sqlx.Tx, pkg *models.EnrollmentPackage) error {
	if m.err != nil {
		return m.err
	}
	m.created = pkg
	return nil
}

type mockBookingCreator struct {
	bookings []models.Booking
	err      error
}

func (m *mockBookingCreator) BulkCreate(ctx context.Context, tx *sqlx.Tx, bookings []models.Booking) error {
	if m.err != nil {
		return m.err
	}
	m.bookings = bookings
	return nil
}

type passthroughAnnotator struct{}

func (passthroughAnnotator) Annotate(ctx context.Context, rows []models.ScheduleRow) []models.ScheduleRow {
	return rows
}

type wizardFixture struct {
	svc      *WizardService
	packages *mockPackageCreator
	bookings *mockBookingCreator
	dbMock   sqlmock.Sqlmock
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	students := &mockStudentReader{students: map[string]models.Student{
		"s1": {ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei", Active: true},
		"s2": {ID: "s2", FullName: "Ken Watanabe", Active: true},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"weekly": {ID: "weekly", Title: "Algebra Intensive", ClassType: models.ClassTypeWeekly, TuitionFee: 12000, Active: true},
		"camp":   {ID: "camp", Title: "Summer Camp", ClassType: models.ClassTypeCamp, TuitionFee: 8000, RequiredDates: 2, Active: true},
		"check":  {ID: "check", Title: "Trial Session", ClassType: models.ClassTypeCheck, TuitionFee: 1500, Active: true},
	}}
	teachers := &mockTeacherReader{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", FullName: "Aoi Sensei", Active: true},
	}}
	packages := &mockPackageCreator{}
	bookings := &mockBookingCreator{}

	svc := NewWizardService(students, courses, teachers, packages, bookings,
		passthroughAnnotator{}, sqlx.NewDb(db, "sqlmock"), validator.New(), nil, zap.NewNop(),
		WizardConfig{DraftTTL: time.Hour, HorizonMonths: 3, BusinessOpen: "09:00", BusinessClose: "22:00"})
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) }
	svc.store.now = svc.now

	return &wizardFixture{svc: svc, packages: packages, bookings: bookings, dbMock: dbMock}
}

func (f *wizardFixture) startDraft(t *testing.T, courseID string) *models.EnrollmentDraft {
	t.Helper()
	draft, err := f.svc.Start(context.Background(), StartWizardRequest{CourseID: courseID})
	require.NoError(t, err)
	return draft
}

func (f *wizardFixture) submitStudents(t *testing.T, id string) {
	t.Helper()
	_, err := f.svc.SubmitStudents(context.Background(), id, SubmitStudentsRequest{Students: []models.StudentRef{
		{ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei"},
	}})
	require.NoError(t, err)
}

func TestWizardStartOpensAtStudentsStep(t *testing.T) {
	f := newWizardFixture(t)

	draft := f.startDraft(t, "weekly")
	assert.Equal(t, models.StepStudents, draft.Step)
	assert.Equal(t, "Algebra Intensive", draft.Course.Title)
	assert.NotEmpty(t, draft.ID)
}

func TestWizardStartUnknownCourse(t *testing.T) {
	f := newWizardFixture(t)

	_, err := f.svc.Start(context.Background(), StartWizardRequest{CourseID: "missing"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestWizardSubmitStudentsRejectsDuplicates(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	_, err := f.svc.SubmitStudents(context.Background(), draft.ID, SubmitStudentsRequest{Students: []models.StudentRef{
		{ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei"},
		{ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed twice")
}

func TestWizardSubmitStudentsRejectsEditedRow(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	_, err := f.svc.SubmitStudents(context.Background(), draft.ID, SubmitStudentsRequest{Students: []models.StudentRef{
		{ID: "s1", FullName: "Mei T.", Nickname: "Mei"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edited after selection")
}

func TestWizardSubmitStudentsRejectsUnknownRow(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	_, err := f.svc.SubmitStudents(context.Background(), draft.ID, SubmitStudentsRequest{Students: []models.StudentRef{
		{ID: "ghost", FullName: "Nobody"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be selected from lookup")
}

func TestWizardSubmitStudentsAdvancesToSchedule(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	updated, err := f.svc.SubmitStudents(context.Background(), draft.ID, SubmitStudentsRequest{Students: []models.StudentRef{
		{ID: "s1", FullName: "Mei Tanaka", Nickname: "Mei"},
		{ID: "s2", FullName: "Ken Watanabe"},
	}})
	require.NoError(t, err)
	assert.Equal(t, models.StepSchedule, updated.Step)
	assert.Len(t, updated.Students, 2)
}

func TestWizardScheduleWeeklyNeedsAWeekday(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")
	f.submitStudents(t, draft.ID)

	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		StartTime: "16:00", EndTime: "17:30",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select at least one weekday")
}

func TestWizardScheduleCampDateCountMismatch(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "camp")
	f.submitStudents(t, draft.ID)

	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		Dates:     []string{"2026-07-20", "2026-07-21", "2026-07-22"},
		StartTime: "09:00", EndTime: "12:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 dates required, 3 selected")
}

func TestWizardScheduleCampRejectsDuplicateDates(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "camp")
	f.submitStudents(t, draft.ID)

	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		Dates:     []string{"2026-07-20", "2026-07-20"},
		StartTime: "09:00", EndTime: "12:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date 2026-07-20 selected twice")
}

func TestWizardScheduleRejectsOutOfHoursTimes(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")
	f.submitStudents(t, draft.ID)

	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		Weekdays:  []string{"MONDAY"},
		StartTime: "07:00", EndTime: "10:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "business hours")
}

func TestWizardScheduleRejectsInvertedTimes(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")
	f.submitStudents(t, draft.ID)

	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		Weekdays:  []string{"MONDAY"},
		StartTime: "17:00", EndTime: "16:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start time must be before end time")
}

func TestWizardCheckSkipsTeacherStep(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "check")
	f.submitStudents(t, draft.ID)

	updated, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirm, updated.Step)
	assert.Nil(t, updated.Assignment)
}

func TestWizardBackSkipsTeacherForCheck(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "check")
	f.submitStudents(t, draft.ID)
	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)

	back, err := f.svc.Back(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSchedule, back.Step)
}

func TestWizardBackPreservesEnteredData(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")
	f.submitStudents(t, draft.ID)
	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		Weekdays:  []string{"MONDAY", "WEDNESDAY"},
		StartTime: "16:00", EndTime: "17:30",
	})
	require.NoError(t, err)

	back, err := f.svc.Back(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSchedule, back.Step)
	require.NotNil(t, back.Spec)
	assert.Len(t, back.Spec.Weekdays, 2)
	assert.Len(t, back.Students, 1)
}

func TestWizardBackAtFirstStepFails(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	_, err := f.svc.Back(draft.ID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidStep.Code, appErr.Code)
}

func (f *wizardFixture) driveWeeklyToConfirm(t *testing.T) *models.EnrollmentDraft {
	t.Helper()
	draft := f.startDraft(t, "weekly")
	f.submitStudents(t, draft.ID)
	_, err := f.svc.SubmitSchedule(context.Background(), draft.ID, SubmitScheduleRequest{
		Weekdays:  []string{"MONDAY"},
		StartTime: "16:00", EndTime: "17:30",
	})
	require.NoError(t, err)
	updated, err := f.svc.SubmitTeacher(context.Background(), draft.ID, SubmitTeacherRequest{
		TeacherID: "t1", RoomName: "Room A",
	})
	require.NoError(t, err)
	require.Equal(t, models.StepConfirm, updated.Step)
	return updated
}

func TestWizardPreviewReturnsRowsAndTotal(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.driveWeeklyToConfirm(t)

	preview, err := f.svc.Preview(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, preview.Rows)
	assert.Equal(t, int64(12000), preview.TotalAmount)
	for _, row := range preview.Rows {
		assert.Equal(t, "Room A", row.Room)
		assert.Equal(t, "Aoi Sensei", row.TeacherName)
	}
}

func TestWizardPreviewRequiresConfirmStep(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	_, err := f.svc.Preview(context.Background(), draft.ID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidStep.Code, appErr.Code)
}

func TestWizardConfirmPersistsPackageAndBookings(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.driveWeeklyToConfirm(t)

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()

	pkg, err := f.svc.Confirm(context.Background(), draft.ID)
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, "weekly", pkg.CourseID)
	assert.Equal(t, "t1", pkg.TeacherID)
	require.NotNil(t, f.packages.created)
	assert.NotEmpty(t, f.bookings.bookings)
	for _, b := range f.bookings.bookings {
		assert.Equal(t, pkg.ID, b.PackageID)
	}

	// Draft is closed after a successful confirm.
	_, err = f.svc.Get(draft.ID)
	assert.Error(t, err)
	assert.NoError(t, f.dbMock.ExpectationsWereMet())
}

func TestWizardConfirmKeepsDraftOnFailure(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.driveWeeklyToConfirm(t)
	f.bookings.err = errors.New("insert failed")

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectRollback()

	_, err := f.svc.Confirm(context.Background(), draft.ID)
	require.Error(t, err)

	// The registrar can retry without re-entering anything.
	kept, err := f.svc.Get(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfirm, kept.Step)
}

func TestWizardCancelDiscardsDraft(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	require.NoError(t, f.svc.Cancel(draft.ID))
	_, err := f.svc.Get(draft.ID)
	assert.Error(t, err)
}

func TestWizardExpiredDraftIsGone(t *testing.T) {
	f := newWizardFixture(t)
	draft := f.startDraft(t, "weekly")

	stored, ok := f.svc.store.Get(draft.ID)
	require.True(t, ok)
	stored.UpdatedAt = f.svc.now().Add(-2 * time.Hour)

	_, err := f.svc.Get(draft.ID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDraftExpired.Code, appErr.Code)
}
