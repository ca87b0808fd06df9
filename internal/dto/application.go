package dto

import (
	"time"

	"github.com/noah-isme/internship-api/internal/models"
)

// ApplyRequest is the payload for submitting an application.
type ApplyRequest struct {
	InternshipID string `json:"internshipId" validate:"required"`
	CoverLetter  string `json:"coverLetter" validate:"required"`
	ResumeURL    string `json:"resumeUrl" validate:"omitempty,max=2048"`
}

// UpdateStatusRequest is the company's decision on an application.
// Nil or empty message/notes leave the stored values untouched.
type UpdateStatusRequest struct {
	Status         models.ApplicationStatus `json:"status" validate:"required,oneof=pending reviewing accepted rejected"`
	CompanyMessage *string                  `json:"companyMessage" validate:"omitempty,max=500"`
	CompanyNotes   *string                  `json:"companyNotes" validate:"omitempty,max=500"`
}

// EditApplicationRequest carries the fields a student may change while pending.
type EditApplicationRequest struct {
	CoverLetter *string `json:"coverLetter"`
	ResumeURL   *string `json:"resumeUrl" validate:"omitempty,max=2048"`
}

// CompanySummary is the company block shown alongside a posting.
type CompanySummary struct {
	ID       string `json:"id"`
	Name     string `json:"companyName"`
	LogoURL  string `json:"logoUrl,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// PostingSummary is the posting block shown alongside an application.
type PostingSummary struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Type      string               `json:"type"`
	Field     string               `json:"field"`
	Duration  int                  `json:"duration"`
	StartDate *time.Time           `json:"startDate,omitempty"`
	City      string               `json:"city,omitempty"`
	Remote    bool                 `json:"remote"`
	Status    models.PostingStatus `json:"status"`
	Deadline  *time.Time           `json:"deadline,omitempty"`
	Company   CompanySummary       `json:"company"`
}

// StudentApplicationView is one row of a student's own application list.
type StudentApplicationView struct {
	models.Application
	Internship *PostingSummary `json:"internship,omitempty"`
}

// CandidateView is one row of a posting owner's applicant list.
type CandidateView struct {
	models.Application
	StudentProfile *models.StudentProfile `json:"studentProfile"`
}

// ApplicationDetail is the single-application view.
type ApplicationDetail struct {
	models.Application
	Internship *PostingSummary        `json:"internship,omitempty"`
	Profile    *models.StudentProfile `json:"profile,omitempty"`
}

// InternshipApplicationStats counts the non-withdrawn applications of one posting.
type InternshipApplicationStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Reviewing int `json:"reviewing"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
}

// StudentApplicationStats counts every application of one student, withdrawn included.
type StudentApplicationStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Reviewing int `json:"reviewing"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Withdrawn int `json:"withdrawn"`
}

// InternshipApplications is the owner's applicant list with its breakdown.
type InternshipApplications struct {
	Internship   *PostingSummary            `json:"internship,omitempty"`
	Count        int                        `json:"count"`
	Stats        InternshipApplicationStats `json:"stats"`
	Applications []CandidateView            `json:"applications"`
}

// ExportFile is a rendered applicant export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
