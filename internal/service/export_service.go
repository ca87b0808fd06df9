package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-api/internal/dto"
	"github.com/noah-isme/internship-api/internal/models"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
	"github.com/noah-isme/internship-api/pkg/export"
)

type applicantLister interface {
	ListByInternship(ctx context.Context, principal models.Principal, internshipID string) (*dto.InternshipApplications, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var applicantColumns = []export.Column{
	{Key: "applied_at", Header: "Applied at", Width: 1.2},
	{Key: "name", Header: "Student", Width: 1.6},
	{Key: "university", Header: "University", Width: 1.6},
	{Key: "major", Header: "Major", Width: 1.2},
	{Key: "city", Header: "City", Width: 1},
	{Key: "skills", Header: "Skills", Width: 2},
	{Key: "status", Header: "Status", Width: 0.9},
	{Key: "reviewed_at", Header: "Reviewed at", Width: 1.2},
	{Key: "resume", Header: "Resume", Width: 2},
}

// ExportService renders a posting's applicant list as a downloadable file.
type ExportService struct {
	lister    applicantLister
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(lister applicantLister, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		lister:    lister,
		renderers: map[string]datasetRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ExportApplicants renders the applicants of a posting the caller owns. An empty format means CSV.
func (s *ExportService) ExportApplicants(ctx context.Context, principal models.Principal, internshipID, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	listing, err := s.lister.ListByInternship(ctx, principal, internshipID)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(applicantDataset(listing))
	if err != nil {
		s.logger.Error("render applicant export", zap.String("internship_id", internshipID), zap.String("format", format), zap.Error(err))
		return nil, internalError(err, "failed to render export")
	}

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("applicants-%s-%s.%s", internshipID, s.now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func applicantDataset(listing *dto.InternshipApplications) export.Dataset {
	title := "Applicants"
	if listing.Internship != nil && listing.Internship.Title != "" {
		title = "Applicants - " + listing.Internship.Title
	}

	rows := make([]map[string]string, 0, len(listing.Applications))
	for _, candidate := range listing.Applications {
		row := map[string]string{
			"applied_at": candidate.AppliedAt.Format("2006-01-02 15:04"),
			"status":     string(candidate.Status),
			"resume":     candidate.ResumeURL,
		}
		if candidate.ReviewedAt != nil {
			row["reviewed_at"] = candidate.ReviewedAt.Format("2006-01-02 15:04")
		}
		if p := candidate.StudentProfile; p != nil {
			row["name"] = p.FullName
			row["university"] = p.University
			row["major"] = p.Major
			row["city"] = p.City
			row["skills"] = strings.Join(p.Skills, ", ")
			if row["resume"] == "" {
				row["resume"] = p.ResumeURL
			}
		} else {
			row["name"] = candidate.StudentID
		}
		rows = append(rows, row)
	}

	return export.Dataset{Title: title, Columns: applicantColumns, Rows: rows}
}
