package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/minato-edu/tutoring-api/internal/models"
)

type overlapFinder interface {
	FindOverlapping(ctx context.Context, date time.Time, startTime, endTime string) ([]models.BookingOverlap, error)
}

// ConflictService shapes booking candidates from schedule rows, asks the
// bookings backend for overlaps and formats human-readable warnings.
type ConflictService struct {
	bookings overlapFinder
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewConflictService constructs a ConflictService.
func NewConflictService(bookings overlapFinder, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *ConflictService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{bookings: bookings, timeout: timeout, metrics: metrics, logger: logger}
}

// Check returns the conflicts found for the given candidates. The whole pass
// runs under the configured timeout so a hung backend cannot stall the caller.
func (s *ConflictService) Check(ctx context.Context, candidates []models.BookingCandidate) ([]models.ConflictDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var details []models.ConflictDetail
	for _, cand := range candidates {
		overlaps, err := s.bookings.FindOverlapping(ctx, cand.Date, cand.StartTime, cand.EndTime)
		if err != nil {
			return nil, fmt.Errorf("conflict check for %s: %w", cand.Date.Format(models.DateLayout), err)
		}
		for _, overlap := range overlaps {
			dims := conflictDimensions(cand, overlap)
			if dims == 0 {
				continue
			}
			details = append(details, models.ConflictDetail{
				Date:         cand.Date,
				Room:         overlap.Room,
				StartTime:    overlap.StartTime,
				ConflictType: dims.String(),
				CourseTitle:  overlap.CourseTitle,
				TeacherName:  overlap.TeacherName,
				StudentName:  overlap.StudentName,
			})
		}
	}
	return details, nil
}

// Annotate stamps a combined warning on every row that collides with an
// existing booking. When the backend call fails the rows are returned
// unannotated: conflict checking degrades to "no warnings", it never blocks
// the flow.
func (s *ConflictService) Annotate(ctx context.Context, rows []models.ScheduleRow) []models.ScheduleRow {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	annotated := make([]models.ScheduleRow, len(rows))
	copy(annotated, rows)

	for i := range annotated {
		row := &annotated[i]
		cand := candidateFromRow(*row)
		overlaps, err := s.bookings.FindOverlapping(ctx, cand.Date, cand.StartTime, cand.EndTime)
		if err != nil {
			s.logger.Warn("conflict check failed, returning rows without warnings", zap.Error(err))
			if s.metrics != nil {
				s.metrics.RecordConflictCheck("error", 0)
			}
			return rows
		}

		dims, labels := summariseOverlaps(cand, overlaps)
		if dims != 0 {
			row.ConflictWarning = formatConflictWarning(dims, labels)
		}
	}

	if s.metrics != nil {
		flagged := 0
		for _, row := range annotated {
			if row.ConflictWarning != "" {
				flagged++
			}
		}
		s.metrics.RecordConflictCheck("ok", flagged)
	}
	return annotated
}

func candidateFromRow(row models.ScheduleRow) models.BookingCandidate {
	return models.BookingCandidate{
		Date:      row.Date,
		Room:      row.Room,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		TeacherID: row.TeacherID,
		StudentID: row.StudentID,
	}
}

// conflictDims is a bit set over the three conflict dimensions.
type conflictDims uint8

const (
	dimRoom conflictDims = 1 << iota
	dimTeacher
	dimStudent
)

func (d conflictDims) String() string {
	switch d {
	case dimRoom:
		return "room"
	case dimTeacher:
		return "teacher"
	case dimStudent:
		return "student"
	case dimRoom | dimTeacher:
		return "room+teacher"
	case dimRoom | dimStudent:
		return "room+student"
	case dimTeacher | dimStudent:
		return "teacher+student"
	case dimRoom | dimTeacher | dimStudent:
		return "room+teacher+student"
	default:
		return "unknown"
	}
}

func conflictDimensions(cand models.BookingCandidate, overlap models.BookingOverlap) conflictDims {
	var dims conflictDims
	if cand.Room != "" && cand.Room == overlap.Room {
		dims |= dimRoom
	}
	if cand.TeacherID != "" && cand.TeacherID == overlap.TeacherID {
		dims |= dimTeacher
	}
	if cand.StudentID == overlap.StudentID {
		dims |= dimStudent
	}
	return dims
}

// conflictLabels carries the display names backing a warning message.
type conflictLabels struct {
	courseTitle string
	teacherName string
	studentName string
	room        string
}

func summariseOverlaps(cand models.BookingCandidate, overlaps []models.BookingOverlap) (conflictDims, conflictLabels) {
	var dims conflictDims
	var labels conflictLabels
	for _, overlap := range overlaps {
		d := conflictDimensions(cand, overlap)
		if d == 0 {
			continue
		}
		dims |= d
		if labels.courseTitle == "" {
			labels.courseTitle = overlap.CourseTitle
		}
		if d&dimRoom != 0 && labels.room == "" {
			labels.room = overlap.Room
		}
		if d&dimTeacher != 0 && labels.teacherName == "" {
			labels.teacherName = overlap.TeacherName
		}
		if d&dimStudent != 0 && labels.studentName == "" {
			labels.studentName = overlap.StudentName
		}
	}
	return dims, labels
}

// formatConflictWarning builds one combined sentence naming every conflicting
// dimension, enumerating the seven possible non-empty subsets explicitly.
func formatConflictWarning(dims conflictDims, labels conflictLabels) string {
	switch dims {
	case dimRoom:
		return fmt.Sprintf("room %s is already booked by %s", labels.room, labels.courseTitle)
	case dimTeacher:
		return fmt.Sprintf("teacher %s is already teaching %s", labels.teacherName, labels.courseTitle)
	case dimStudent:
		return fmt.Sprintf("student %s already attends %s", labels.studentName, labels.courseTitle)
	case dimRoom | dimTeacher:
		return fmt.Sprintf("room %s and teacher %s are already taken by %s", labels.room, labels.teacherName, labels.courseTitle)
	case dimRoom | dimStudent:
		return fmt.Sprintf("room %s is already booked and student %s already attends %s", labels.room, labels.studentName, labels.courseTitle)
	case dimTeacher | dimStudent:
		return fmt.Sprintf("teacher %s and student %s are already booked for %s", labels.teacherName, labels.studentName, labels.courseTitle)
	case dimRoom | dimTeacher | dimStudent:
		return fmt.Sprintf("room %s, teacher %s and student %s are all already booked for %s", labels.room, labels.teacherName, labels.studentName, labels.courseTitle)
	default:
		return fmt.Sprintf("conflict with %s", labels.courseTitle)
	}
}
