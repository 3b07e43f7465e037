package models

import "time"

// WizardStep is the authoritative current step of an enrollment draft. Exactly
// one step is current at any time.
type WizardStep string

// Wizard steps in forward order. A draft in StepConfirm is closed by either
// Confirm or Cancel, both of which delete it from the store.
const (
	StepStudents WizardStep = "STUDENTS"
	StepSchedule WizardStep = "SCHEDULE"
	StepTeacher  WizardStep = "TEACHER"
	StepConfirm  WizardStep = "CONFIRM"
)

// EnrollmentDraft accumulates wizard input. It lives only in the draft store
// until Confirm persists it as a package.
type EnrollmentDraft struct {
	ID         string             `json:"id"`
	Step       WizardStep         `json:"step"`
	Course     CourseRef          `json:"course"`
	Students   []StudentRef       `json:"students,omitempty"`
	Spec       *ClassSpec         `json:"spec,omitempty"`
	Assignment *TeacherAssignment `json:"assignment,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// EnrollmentPackage is the persisted result of a confirmed draft.
type EnrollmentPackage struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id,omitempty"`
	Room      string    `db:"room" json:"room,omitempty"`
	Remark    string    `db:"remark" json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
