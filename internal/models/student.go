package models

import "time"

// Student represents a learner registered with the school.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Nickname  string    `db:"nickname" json:"nickname"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentRef is the subset of student fields carried inside an enrollment
// draft. The values must mirror a looked-up record verbatim; an edited row is
// rejected at submission.
type StudentRef struct {
	ID       string `json:"id" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Nickname string `json:"nickname"`
}

// Label renders the display label used on schedule rows.
func (r StudentRef) Label() string {
	if r.Nickname != "" {
		return r.FullName + " (" + r.Nickname + ")"
	}
	return r.FullName
}
