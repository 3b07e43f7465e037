package models

import "time"

// ClassType categorises how a course's sessions are scheduled.
type ClassType string

// Supported class types.
const (
	// ClassTypeWeekly repeats on fixed weekdays until the horizon.
	ClassTypeWeekly ClassType = "WEEKLY_FIXED"
	// ClassTypeCamp runs on an explicit set of dates whose count is fixed
	// per course (a "2 days camp" requires exactly 2 dates).
	ClassTypeCamp ClassType = "DATE_CAMP"
	// ClassTypeCheck is a trial/flexible booking with no date expansion and
	// no teacher/room assignment.
	ClassTypeCheck ClassType = "CHECK"
)

// Course describes a sellable course or package.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	ClassType     ClassType `db:"class_type" json:"class_type"`
	TuitionFee    int64     `db:"tuition_fee" json:"tuition_fee"`
	RequiredDates int       `db:"required_dates" json:"required_dates"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseRef is the course subset carried inside an enrollment draft.
type CourseRef struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ClassType     ClassType `json:"class_type"`
	TuitionFee    int64     `json:"tuition_fee"`
	RequiredDates int       `json:"required_dates"`
}
