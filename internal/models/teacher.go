package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Nickname  string    `db:"nickname" json:"nickname"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherAssignment pins a teacher and room to an enrollment draft. It is
// required for every class type except CHECK.
type TeacherAssignment struct {
	TeacherID   string `json:"teacher_id" validate:"required"`
	TeacherName string `json:"teacher_name" validate:"required"`
	RoomName    string `json:"room_name" validate:"required"`
	Remark      string `json:"remark"`
}
