package models

import "time"

// PostingStatus is the publication state of an internship posting.
type PostingStatus string

const (
	PostingActive PostingStatus = "active"
	PostingClosed PostingStatus = "closed"
	PostingFilled PostingStatus = "filled"
)

// Posting is the read-only projection of an internship offer joined with its company.
type Posting struct {
	ID              string        `db:"id" json:"id"`
	OwnerID         string        `db:"company_id" json:"companyId"`
	Title           string        `db:"title" json:"title"`
	Type            string        `db:"type" json:"type"`
	Field           string        `db:"field" json:"field"`
	DurationMonths  int           `db:"duration_months" json:"duration"`
	StartDate       *time.Time    `db:"start_date" json:"startDate,omitempty"`
	City            string        `db:"location_city" json:"city"`
	Remote          bool          `db:"location_remote" json:"remote"`
	Status          PostingStatus `db:"status" json:"status"`
	Deadline        *time.Time    `db:"deadline" json:"deadline,omitempty"`
	CompanyName     string        `db:"company_name" json:"companyName"`
	CompanyLogoURL  string        `db:"company_logo_url" json:"companyLogoUrl,omitempty"`
	CompanyIndustry string        `db:"company_industry" json:"companyIndustry,omitempty"`
}

// AcceptsApplications reports whether the posting is open.
func (p Posting) AcceptsApplications() bool {
	return p.Status == PostingActive
}

// DeadlinePassed reports whether the deadline, if any, lies before now.
func (p Posting) DeadlinePassed(now time.Time) bool {
	return p.Deadline != nil && now.After(*p.Deadline)
}
