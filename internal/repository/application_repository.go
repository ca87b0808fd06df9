package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-api/internal/models"
	"github.com/noah-isme/internship-api/pkg/database"
)

// ApplicationUniqueConstraint is the unique index on (student_id, internship_id).
const ApplicationUniqueConstraint = "applications_student_internship_key"

var (
	// ErrDuplicateApplication is returned by Insert when the student already applied to the internship.
	ErrDuplicateApplication = errors.New("application already exists for student and internship")
	// ErrStatusChanged is returned by Save when the stored status no longer matches the one the change was computed from.
	ErrStatusChanged = errors.New("application status changed since it was read")
)

const applicationColumns = `id, student_id, internship_id, cover_letter, resume_url, status, applied_at, reviewed_at, company_message, company_notes, updated_at`

// ApplicationRepository persists applications. The database unique index is the
// authority for the one-application-per-posting rule.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Insert stores a new application.
func (r *ApplicationRepository) Insert(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.AppliedAt.IsZero() {
		app.AppliedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO applications (` + applicationColumns + `)
        VALUES (:id, :student_id, :internship_id, :cover_letter, :resume_url, :status, :applied_at, :reviewed_at, :company_message, :company_notes, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		if database.IsUniqueViolation(err, ApplicationUniqueConstraint) {
			return ErrDuplicateApplication
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// FindByID loads an application. It returns sql.ErrNoRows when absent.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByStudentAndInternship loads the application of a student for a posting, if any.
func (r *ApplicationRepository) FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1 AND internship_id = $2`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, studentID, internshipID); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByStudent lists a student's applications, most recent first.
func (r *ApplicationRepository) FindByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1 ORDER BY applied_at DESC, id DESC`
	apps := []models.Application{}
	if err := r.db.SelectContext(ctx, &apps, query, studentID); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	return apps, nil
}

// FindByInternship lists a posting's applications, most recent first.
func (r *ApplicationRepository) FindByInternship(ctx context.Context, internshipID string) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE internship_id = $1 ORDER BY applied_at DESC, id DESC`
	apps := []models.Application{}
	if err := r.db.SelectContext(ctx, &apps, query, internshipID); err != nil {
		return nil, fmt.Errorf("list internship applications: %w", err)
	}
	return apps, nil
}

// CountByStudent aggregates a student's applications per status.
func (r *ApplicationRepository) CountByStudent(ctx context.Context, studentID string) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM applications WHERE student_id = $1 GROUP BY status`
	counts := []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, query, studentID); err != nil {
		return nil, fmt.Errorf("count student applications: %w", err)
	}
	return counts, nil
}

// guardedApplication binds the status a change was computed from.
type guardedApplication struct {
	models.Application
	ExpectedStatus models.ApplicationStatus `db:"expected_status"`
}

// Save writes the mutable fields of an application, provided its stored status is still expected.
// Owner and posting references are never updated. It returns sql.ErrNoRows when the application
// is gone and ErrStatusChanged when another write moved it first.
func (r *ApplicationRepository) Save(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET cover_letter = :cover_letter, resume_url = :resume_url, status = :status,
        reviewed_at = :reviewed_at, company_message = :company_message, company_notes = :company_notes, updated_at = :updated_at
        WHERE id = :id AND status = :expected_status`
	res, err := r.db.NamedExecContext(ctx, query, guardedApplication{Application: *app, ExpectedStatus: expected})
	if err != nil {
		return fmt.Errorf("save application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save application: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current models.ApplicationStatus
	if err := r.db.GetContext(ctx, &current, `SELECT status FROM applications WHERE id = $1`, app.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("save application: %w", err)
	}
	return ErrStatusChanged
}
