package models

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wire format for times of day.
const ClockLayout = "15:04"

// ClassSpecKind discriminates the class spec variants.
type ClassSpecKind string

// Class spec variants.
const (
	SpecRepeatingWeekly ClassSpecKind = "REPEATING_WEEKLY"
	SpecExplicitDates   ClassSpecKind = "EXPLICIT_DATES"
	SpecSingleCheck     ClassSpecKind = "SINGLE_CHECK"
)

// ClassSpec is the abstract description of when a course occurs. Only the
// fields matching Kind are populated; switching kind clears the rest.
type ClassSpec struct {
	Kind      ClassSpecKind  `json:"kind"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty"`
	Dates     []time.Time    `json:"dates,omitempty"`
	StartTime string         `json:"start_time"`
	EndTime   string         `json:"end_time"`
}

// ScheduleRow is one concrete (date x student) session produced by
// materialization. Rows are rebuilt from scratch whenever any input changes.
type ScheduleRow struct {
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Room            string    `json:"room"`
	TeacherID       string    `json:"teacher_id,omitempty"`
	TeacherName     string    `json:"teacher_name,omitempty"`
	StudentID       string    `json:"student_id"`
	StudentLabel    string    `json:"student_label"`
	ConflictWarning string    `json:"conflict_warning,omitempty"`
}

// BookingCandidate is the conflict-check request shape derived 1:1 from a
// schedule row.
type BookingCandidate struct {
	Date      time.Time `json:"date"`
	Room      string    `json:"room"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	TeacherID string    `json:"teacher_id"`
	StudentID string    `json:"student_id"`
}

// ConflictDetail describes an overlap between a candidate and an existing
// booking, naming the dimension(s) that collide.
type ConflictDetail struct {
	Date         time.Time `json:"date"`
	Room         string    `json:"room"`
	StartTime    string    `json:"start_time"`
	ConflictType string    `json:"conflict_type"`
	CourseTitle  string    `json:"course_title"`
	TeacherName  string    `json:"teacher_name,omitempty"`
	StudentName  string    `json:"student_name,omitempty"`
}

// Booking is a persisted session row of a confirmed enrollment package. The
// bookings table backs the conflict check.
type Booking struct {
	ID          string    `db:"id" json:"id"`
	PackageID   string    `db:"package_id" json:"package_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Date        time.Time `db:"session_date" json:"date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Room        string    `db:"room" json:"room"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BookingOverlap enriches an overlapping booking with labels needed for
// warning messages.
type BookingOverlap struct {
	Booking
	CourseTitle string `db:"course_title" json:"course_title"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	StudentName string `db:"student_name" json:"student_name"`
}
