package models

import "github.com/lib/pq"

// StudentProfile is the subset of a student's profile attached to application views.
type StudentProfile struct {
	StudentID  string         `db:"student_id" json:"studentId"`
	FullName   string         `db:"full_name" json:"fullName"`
	Phone      string         `db:"phone" json:"phone,omitempty"`
	City       string         `db:"city" json:"city,omitempty"`
	University string         `db:"university" json:"university,omitempty"`
	Major      string         `db:"major" json:"major,omitempty"`
	Level      string         `db:"level" json:"level,omitempty"`
	Skills     pq.StringArray `db:"skills" json:"skills"`
	ResumeURL  string         `db:"resume_url" json:"resumeUrl,omitempty"`
	AvatarURL  string         `db:"avatar_url" json:"avatarUrl,omitempty"`
	Bio        string         `db:"bio" json:"bio,omitempty"`
}
