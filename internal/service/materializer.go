package service

import (
	"sort"
	"time"

	"github.com/minato-edu/tutoring-api/internal/models"
)

// Materialize expands an abstract class spec into concrete per-date,
// per-student schedule rows.
//
// RepeatingWeekly walks calendar days forward from today for a capped horizon
// of horizonMonths, emitting one row per student for every date whose weekday
// is in the selected set. ExplicitDates emits one row per student per chosen
// date. SingleCheck produces no rows.
//
// today is an explicit parameter so callers control the reference date. Rows
// are always returned sorted ascending by date, then by student label.
func Materialize(spec models.ClassSpec, assignment *models.TeacherAssignment, students []models.StudentRef, today time.Time, horizonMonths int) []models.ScheduleRow {
	if horizonMonths <= 0 {
		horizonMonths = 3
	}

	var dates []time.Time
	switch spec.Kind {
	case models.SpecRepeatingWeekly:
		dates = expandWeekly(spec.Weekdays, today, horizonMonths)
	case models.SpecExplicitDates:
		dates = make([]time.Time, len(spec.Dates))
		for i, d := range spec.Dates {
			dates[i] = truncateToDay(d)
		}
	default:
		return nil
	}

	room, teacherID, teacherName := "", "", ""
	if assignment != nil {
		room = assignment.RoomName
		teacherID = assignment.TeacherID
		teacherName = assignment.TeacherName
	}

	rows := make([]models.ScheduleRow, 0, len(dates)*len(students))
	for _, date := range dates {
		for _, student := range students {
			rows = append(rows, models.ScheduleRow{
				Date:         date,
				StartTime:    spec.StartTime,
				EndTime:      spec.EndTime,
				Room:         room,
				TeacherID:    teacherID,
				TeacherName:  teacherName,
				StudentID:    student.ID,
				StudentLabel: student.Label(),
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].StudentLabel < rows[j].StudentLabel
	})
	return rows
}

func expandWeekly(weekdays []time.Weekday, today time.Time, horizonMonths int) []time.Time {
	selected := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		selected[wd] = true
	}
	if len(selected) == 0 {
		return nil
	}

	start := truncateToDay(today)
	end := start.AddDate(0, horizonMonths, 0)

	var dates []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if selected[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
