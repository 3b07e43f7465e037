package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/minato-edu/tutoring-api/internal/models"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
)

type wizardStudentReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type wizardCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type wizardTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type packageCreator interface {
	Create(ctx context.Context, tx *sqlx.Tx, pkg *models.EnrollmentPackage) error
}

type bookingCreator interface {
	BulkCreate(ctx context.Context, tx *sqlx.Tx, bookings []models.Booking) error
}

type rowAnnotator interface {
	Annotate(ctx context.Context, rows []models.ScheduleRow) []models.ScheduleRow
}

type wizardTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// StartWizardRequest opens a new enrollment draft for a course.
type StartWizardRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// SubmitStudentsRequest carries the selected student rows.
type SubmitStudentsRequest struct {
	Students []models.StudentRef `json:"students" validate:"required,min=1,dive"`
}

// SubmitScheduleRequest carries the class spec for the draft's class type.
// Weekdays use uppercase English day names; dates use YYYY-MM-DD.
type SubmitScheduleRequest struct {
	Weekdays  []string `json:"weekdays"`
	Dates     []string `json:"dates"`
	StartTime string   `json:"start_time" validate:"required"`
	EndTime   string   `json:"end_time" validate:"required"`
}

// SubmitTeacherRequest carries the teacher and room assignment.
type SubmitTeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	RoomName  string `json:"room_name" validate:"required"`
	Remark    string `json:"remark"`
}

// WizardPreview is the confirmation-step view: annotated rows plus cost.
type WizardPreview struct {
	Draft       *models.EnrollmentDraft `json:"draft"`
	Rows        []models.ScheduleRow    `json:"rows"`
	TotalAmount int64                   `json:"total_amount"`
}

// WizardConfig tunes the enrollment wizard.
type WizardConfig struct {
	DraftTTL      time.Duration
	HorizonMonths int
	BusinessOpen  string
	BusinessClose string
	SubmitTimeout time.Duration
}

// WizardService drives the enrollment wizard: a linear, back-navigable step
// machine over a draft held in memory until Confirm persists it.
type WizardService struct {
	students  wizardStudentReader
	courses   wizardCourseReader
	teachers  wizardTeacherReader
	packages  packageCreator
	bookings  bookingCreator
	conflicts rowAnnotator
	tx        wizardTxProvider
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cfg       WizardConfig
	store     *draftStore
	now       func() time.Time
}

// NewWizardService wires the wizard dependencies.
func NewWizardService(
	students wizardStudentReader,
	courses wizardCourseReader,
	teachers wizardTeacherReader,
	packages packageCreator,
	bookings bookingCreator,
	conflicts rowAnnotator,
	tx wizardTxProvider,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg WizardConfig,
) *WizardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 2 * time.Hour
	}
	if cfg.HorizonMonths <= 0 {
		cfg.HorizonMonths = 3
	}
	if cfg.BusinessOpen == "" {
		cfg.BusinessOpen = "09:00"
	}
	if cfg.BusinessClose == "" {
		cfg.BusinessClose = "22:00"
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 10 * time.Second
	}
	return &WizardService{
		students:  students,
		courses:   courses,
		teachers:  teachers,
		packages:  packages,
		bookings:  bookings,
		conflicts: conflicts,
		tx:        tx,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		store:     newDraftStore(cfg.DraftTTL, time.Now),
		now:       time.Now,
	}
}

// Start opens a draft at the Students step.
func (s *WizardService) Start(ctx context.Context, req StartWizardRequest) (*models.EnrollmentDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wizard payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is inactive")
	}

	now := s.now().UTC()
	draft := &models.EnrollmentDraft{
		ID:   uuid.NewString(),
		Step: models.StepStudents,
		Course: models.CourseRef{
			ID:            course.ID,
			Title:         course.Title,
			ClassType:     course.ClassType,
			TuitionFee:    course.TuitionFee,
			RequiredDates: course.RequiredDates,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Save(draft)
	if s.metrics != nil {
		s.metrics.RecordWizardEvent("started")
	}
	return draft, nil
}

// Get returns the draft by id.
func (s *WizardService) Get(id string) (*models.EnrollmentDraft, error) {
	draft, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrDraftExpired, "")
	}
	return draft, nil
}

// SubmitStudents validates the selected students and advances to Schedule.
// Every row must mirror a looked-up record verbatim; edited or duplicate rows
// block the transition.
func (s *WizardService) SubmitStudents(ctx context.Context, id string, req SubmitStudentsRequest) (*models.EnrollmentDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid students payload")
	}
	draft, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if draft.Step != models.StepStudents {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "students already submitted")
	}

	seen := make(map[string]bool, len(req.Students))
	ids := make([]string, 0, len(req.Students))
	for _, ref := range req.Students {
		if seen[ref.ID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is listed twice", ref.FullName))
		}
		seen[ref.ID] = true
		ids = append(ids, ref.ID)
	}

	records, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify students")
	}
	byID := make(map[string]models.Student, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	for _, ref := range req.Students {
		rec, ok := byID[ref.ID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s must be selected from lookup", ref.FullName))
		}
		if rec.FullName != ref.FullName || rec.Nickname != ref.Nickname {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s was edited after selection, please reselect", ref.FullName))
		}
		if !rec.Active {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("student %s is inactive", rec.FullName))
		}
	}

	draft.Students = append([]models.StudentRef(nil), req.Students...)
	draft.Step = models.StepSchedule
	s.touch(draft)
	return draft, nil
}

// SubmitSchedule validates the class spec for the draft's class type and
// advances to Teacher, or straight to Confirm for the CHECK (trial) type.
func (s *WizardService) SubmitSchedule(ctx context.Context, id string, req SubmitScheduleRequest) (*models.EnrollmentDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	draft, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if draft.Step != models.StepSchedule {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "schedule step not active")
	}

	if err := s.validateTimeRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	spec := &models.ClassSpec{StartTime: req.StartTime, EndTime: req.EndTime}
	switch draft.Course.ClassType {
	case models.ClassTypeWeekly:
		weekdays, err := parseWeekdays(req.Weekdays)
		if err != nil {
			return nil, err
		}
		if len(weekdays) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one weekday")
		}
		spec.Kind = models.SpecRepeatingWeekly
		spec.Weekdays = weekdays
	case models.ClassTypeCamp:
		dates, err := parseDates(req.Dates)
		if err != nil {
			return nil, err
		}
		if len(dates) != draft.Course.RequiredDates {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("%d dates required, %d selected", draft.Course.RequiredDates, len(dates)))
		}
		spec.Kind = models.SpecExplicitDates
		spec.Dates = dates
	case models.ClassTypeCheck:
		spec.Kind = models.SpecSingleCheck
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported class type %s", draft.Course.ClassType))
	}

	// Switching variants drops previously entered incompatible fields, and
	// the CHECK type never carries a teacher assignment.
	draft.Spec = spec
	if draft.Course.ClassType == models.ClassTypeCheck {
		draft.Assignment = nil
		draft.Step = models.StepConfirm
	} else {
		draft.Step = models.StepTeacher
	}
	s.touch(draft)
	return draft, nil
}

// SubmitTeacher validates the teacher and room assignment and advances to
// Confirm.
func (s *WizardService) SubmitTeacher(ctx context.Context, id string, req SubmitTeacherRequest) (*models.EnrollmentDraft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	draft, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if draft.Step != models.StepTeacher {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "teacher step not active")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher is inactive")
	}

	draft.Assignment = &models.TeacherAssignment{
		TeacherID:   teacher.ID,
		TeacherName: teacher.FullName,
		RoomName:    req.RoomName,
		Remark:      req.Remark,
	}
	draft.Step = models.StepConfirm
	s.touch(draft)
	return draft, nil
}

// Back returns the draft to its predecessor step. All previously entered data
// is preserved. For CHECK drafts the Teacher step is skipped in both
// directions.
func (s *WizardService) Back(id string) (*models.EnrollmentDraft, error) {
	draft, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	switch draft.Step {
	case models.StepSchedule:
		draft.Step = models.StepStudents
	case models.StepTeacher:
		draft.Step = models.StepSchedule
	case models.StepConfirm:
		if draft.Course.ClassType == models.ClassTypeCheck {
			draft.Step = models.StepSchedule
		} else {
			draft.Step = models.StepTeacher
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "already at the first step")
	}
	s.touch(draft)
	return draft, nil
}

// Preview materializes the draft's schedule rows, annotates conflicts and
// returns them together with the total cost.
func (s *WizardService) Preview(ctx context.Context, id string) (*WizardPreview, error) {
	draft, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if draft.Step != models.StepConfirm {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "draft is not ready for confirmation")
	}

	rows := Materialize(*draft.Spec, draft.Assignment, draft.Students, s.now(), s.cfg.HorizonMonths)
	if s.conflicts != nil {
		rows = s.conflicts.Annotate(ctx, rows)
	}
	return &WizardPreview{Draft: draft, Rows: rows, TotalAmount: draft.Course.TuitionFee}, nil
}

// Confirm persists the draft as a package with one booking per schedule row.
// On failure the draft is kept so the registrar can retry without re-entering
// anything; on success the draft is closed and removed.
func (s *WizardService) Confirm(ctx context.Context, id string) (*models.EnrollmentPackage, error) {
	draft, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if draft.Step != models.StepConfirm {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "draft is not ready for confirmation")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()

	pkg := &models.EnrollmentPackage{
		ID:       uuid.NewString(),
		CourseID: draft.Course.ID,
	}
	if draft.Assignment != nil {
		pkg.TeacherID = draft.Assignment.TeacherID
		pkg.Room = draft.Assignment.RoomName
		pkg.Remark = draft.Assignment.Remark
	}

	rows := Materialize(*draft.Spec, draft.Assignment, draft.Students, s.now(), s.cfg.HorizonMonths)
	bookings := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, models.Booking{
			PackageID: pkg.ID,
			CourseID:  draft.Course.ID,
			Date:      row.Date,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Room:      row.Room,
			TeacherID: row.TeacherID,
			StudentID: row.StudentID,
		})
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.packages.Create(ctx, tx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create package")
	}
	if err := s.bookings.BulkCreate(ctx, tx, bookings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bookings")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit package")
	}

	s.store.Delete(id)
	if s.metrics != nil {
		s.metrics.RecordWizardEvent("confirmed")
	}
	s.logger.Info("enrollment package created",
		zap.String("package_id", pkg.ID),
		zap.String("course_id", pkg.CourseID),
		zap.Int("bookings", len(bookings)))
	return pkg, nil
}

// Cancel discards the draft entirely.
func (s *WizardService) Cancel(id string) error {
	if _, ok := s.store.Get(id); !ok {
		return appErrors.Clone(appErrors.ErrDraftExpired, "")
	}
	s.store.Delete(id)
	if s.metrics != nil {
		s.metrics.RecordWizardEvent("cancelled")
	}
	return nil
}

func (s *WizardService) touch(draft *models.EnrollmentDraft) {
	draft.UpdatedAt = s.now().UTC()
	s.store.Save(draft)
}

func (s *WizardService) validateTimeRange(start, end string) error {
	openMin, err := parseClock(s.cfg.BusinessOpen)
	if err != nil {
		openMin = 0
	}
	closeMin, err := parseClock(s.cfg.BusinessClose)
	if err != nil {
		closeMin = 24 * 60
	}
	startMin, err := parseClock(start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", start))
	}
	endMin, err := parseClock(end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q", end))
	}
	if startMin >= endMin {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	if startMin < openMin || endMin > closeMin {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("times must fall within business hours %s-%s", s.cfg.BusinessOpen, s.cfg.BusinessClose))
	}
	return nil
}

func parseClock(value string) (int, error) {
	t, err := time.Parse(models.ClockLayout, value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

func parseWeekdays(values []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(values))
	var weekdays []time.Weekday
	for _, v := range values {
		wd, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(v))]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", v))
		}
		if !seen[wd] {
			seen[wd] = true
			weekdays = append(weekdays, wd)
		}
	}
	return weekdays, nil
}

func parseDates(values []string) ([]time.Time, error) {
	seen := make(map[string]bool, len(values))
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := time.Parse(models.DateLayout, strings.TrimSpace(v))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", v))
		}
		key := d.Format(models.DateLayout)
		if seen[key] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %s selected twice", key))
		}
		seen[key] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// draftStore holds open drafts in memory with a TTL. Each wizard instance
// owns its draft exclusively, so a plain RWMutex suffices.
type draftStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*models.EnrollmentDraft
}

func newDraftStore(ttl time.Duration, now func() time.Time) *draftStore {
	return &draftStore{ttl: ttl, now: now, items: make(map[string]*models.EnrollmentDraft)}
}

func (s *draftStore) Save(draft *models.EnrollmentDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draft.ID] = draft
}

func (s *draftStore) Get(id string) (*models.EnrollmentDraft, bool) {
	s.mu.RLock()
	draft, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().Sub(draft.UpdatedAt) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return draft, true
}

func (s *draftStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}
