package models

import "time"

// ApplicationStatus is the lifecycle state of a candidacy.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusReviewing ApplicationStatus = "reviewing"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
	StatusWithdrawn ApplicationStatus = "withdrawn"
)

// Field limits, counted in characters.
const (
	CoverLetterMinLength = 50
	CoverLetterMaxLength = 2000
	CompanyTextMaxLength = 500
	ResumeURLMaxLength   = 2048
)

// CompanyStatuses are the values a posting owner may set.
var CompanyStatuses = []ApplicationStatus{StatusPending, StatusReviewing, StatusAccepted, StatusRejected}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Application is a student's candidacy for one internship posting.
type Application struct {
	ID             string            `db:"id" json:"id"`
	StudentID      string            `db:"student_id" json:"studentId"`
	InternshipID   string            `db:"internship_id" json:"internshipId"`
	CoverLetter    string            `db:"cover_letter" json:"coverLetter"`
	ResumeURL      string            `db:"resume_url" json:"resumeUrl,omitempty"`
	Status         ApplicationStatus `db:"status" json:"status"`
	AppliedAt      time.Time         `db:"applied_at" json:"appliedAt"`
	ReviewedAt     *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CompanyMessage *string           `db:"company_message" json:"companyMessage,omitempty"`
	CompanyNotes   *string           `db:"company_notes" json:"companyNotes,omitempty"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updatedAt"`
}

// WithoutCompanyNotes returns a copy safe to show to the applicant.
func (a Application) WithoutCompanyNotes() Application {
	a.CompanyNotes = nil
	return a
}

// StatusCount is one row of a status aggregation.
type StatusCount struct {
	Status ApplicationStatus `db:"status"`
	Count  int               `db:"count"`
}
