package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-api/internal/dto"
	"github.com/noah-isme/internship-api/internal/models"
	"github.com/noah-isme/internship-api/internal/repository"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
)

type applicationStore interface {
	Insert(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.Application, error)
	FindByInternship(ctx context.Context, internshipID string) ([]models.Application, error)
	CountByStudent(ctx context.Context, studentID string) ([]models.StatusCount, error)
	Save(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error
}

type postingReader interface {
	FindByID(ctx context.Context, id string) (*models.Posting, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Posting, error)
}

type profileReader interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentProfile, error)
	FindByStudents(ctx context.Context, studentIDs []string) (map[string]models.StudentProfile, error)
}

type applicationHistory interface {
	Record(ctx context.Context, event models.ApplicationEvent)
	List(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error)
}

// ApplicationService runs the candidacy lifecycle: creation, company decisions, student
// edits and withdrawal, plus the read models of both audiences.
type ApplicationService struct {
	apps      applicationStore
	postings  postingReader
	profiles  profileReader
	history   applicationHistory
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewApplicationService constructs the application service. history and metrics may be nil.
func NewApplicationService(apps applicationStore, postings postingReader, profiles profileReader, history applicationHistory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		apps:      apps,
		postings:  postings,
		profiles:  profiles,
		history:   history,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply submits a student's application to an active posting.
func (s *ApplicationService) Apply(ctx context.Context, principal models.Principal, req dto.ApplyRequest) (app *models.Application, err error) {
	defer func() { s.observeRejection(ActionApply, err) }()

	if err := CanAct(principal, AccessSubject{}, ActionApply); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	if err := validateCoverLetter(req.CoverLetter); err != nil {
		return nil, err
	}

	posting, err := s.loadPosting(ctx, req.InternshipID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !posting.AcceptsApplications() {
		return nil, appErrors.ErrPostingClosed
	}
	if posting.DeadlinePassed(now) {
		return nil, appErrors.ErrDeadlinePassed
	}

	existing, err := s.apps.FindByStudentAndInternship(ctx, principal.ID, posting.ID)
	switch {
	case err == nil && existing != nil:
		return nil, appErrors.ErrDuplicateApplication
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, internalError(err, "failed to check existing application")
	}

	status, err := NextStatus(statusNone, ActionApply, principal.Role, models.StatusPending)
	if err != nil {
		return nil, err
	}
	app = &models.Application{
		StudentID:    principal.ID,
		InternshipID: posting.ID,
		CoverLetter:  req.CoverLetter,
		ResumeURL:    strings.TrimSpace(req.ResumeURL),
		Status:       status,
		AppliedAt:    now,
	}
	if err := s.apps.Insert(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicateApplication) {
			return nil, appErrors.ErrDuplicateApplication
		}
		return nil, internalError(err, "failed to create application")
	}

	s.committed(ctx, principal, ActionApply, models.EventApplied, app, statusNone)
	return app, nil
}

// UpdateStatus records the posting owner's decision on an application.
func (s *ApplicationService) UpdateStatus(ctx context.Context, principal models.Principal, id string, req dto.UpdateStatusRequest) (app *models.Application, err error) {
	defer func() { s.observeRejection(ActionUpdateStatus, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	app, err = s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	posting, err := s.loadPosting(ctx, app.InternshipID)
	if err != nil {
		return nil, err
	}
	if err := CanAct(principal, SubjectOf(app, posting), ActionUpdateStatus); err != nil {
		return nil, err
	}
	next, err := NextStatus(app.Status, ActionUpdateStatus, principal.Role, req.Status)
	if err != nil {
		return nil, err
	}

	from := app.Status
	reviewedAt := s.now()
	app.Status = next
	app.ReviewedAt = &reviewedAt
	if provided(req.CompanyMessage) {
		app.CompanyMessage = req.CompanyMessage
	}
	if provided(req.CompanyNotes) {
		app.CompanyNotes = req.CompanyNotes
	}
	if err := s.save(ctx, app, from); err != nil {
		return nil, err
	}

	s.committed(ctx, principal, ActionUpdateStatus, models.EventStatusChanged, app, from)
	return app, nil
}

// Edit changes the cover letter or résumé link of a pending application.
func (s *ApplicationService) Edit(ctx context.Context, principal models.Principal, id string, req dto.EditApplicationRequest) (app *models.Application, err error) {
	defer func() { s.observeRejection(ActionEdit, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	if req.CoverLetter == nil && req.ResumeURL == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if req.CoverLetter != nil {
		if err := validateCoverLetter(*req.CoverLetter); err != nil {
			return nil, err
		}
	}

	app, err = s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanAct(principal, SubjectOf(app, nil), ActionEdit); err != nil {
		return nil, err
	}
	if _, err := NextStatus(app.Status, ActionEdit, principal.Role, statusNone); err != nil {
		return nil, err
	}

	if req.CoverLetter != nil {
		app.CoverLetter = *req.CoverLetter
	}
	if req.ResumeURL != nil {
		app.ResumeURL = strings.TrimSpace(*req.ResumeURL)
	}
	if err := s.save(ctx, app, app.Status); err != nil {
		return nil, err
	}

	s.committed(ctx, principal, ActionEdit, models.EventEdited, app, app.Status)
	view := app.WithoutCompanyNotes()
	return &view, nil
}

// Withdraw moves an application to the terminal withdrawn status.
func (s *ApplicationService) Withdraw(ctx context.Context, principal models.Principal, id string) (app *models.Application, err error) {
	defer func() { s.observeRejection(ActionWithdraw, err) }()

	app, err = s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanAct(principal, SubjectOf(app, nil), ActionWithdraw); err != nil {
		return nil, err
	}
	next, err := NextStatus(app.Status, ActionWithdraw, principal.Role, statusNone)
	if err != nil {
		return nil, err
	}

	from := app.Status
	app.Status = next
	if err := s.save(ctx, app, from); err != nil {
		return nil, err
	}

	s.committed(ctx, principal, ActionWithdraw, models.EventWithdrawn, app, from)
	view := app.WithoutCompanyNotes()
	return &view, nil
}

// Get returns one application to its student or to the company owning the posting.
// The student sees their own profile attached and never sees company notes.
func (s *ApplicationService) Get(ctx context.Context, principal models.Principal, id string) (*dto.ApplicationDetail, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	posting, err := s.findPosting(ctx, app.InternshipID)
	if err != nil {
		return nil, err
	}
	if err := CanAct(principal, SubjectOf(app, posting), ActionView); err != nil {
		return nil, err
	}

	detail := &dto.ApplicationDetail{Application: *app, Internship: summarizePosting(posting)}
	if principal.Is(models.RoleStudent) {
		detail.Application = app.WithoutCompanyNotes()
		profile, err := s.profiles.FindByStudent(ctx, app.StudentID)
		switch {
		case err == nil:
			detail.Profile = profile
		case !errors.Is(err, sql.ErrNoRows):
			return nil, internalError(err, "failed to load student profile")
		}
	}
	return detail, nil
}

// History returns the recorded lifecycle events of an application.
func (s *ApplicationService) History(ctx context.Context, principal models.Principal, id string) ([]models.ApplicationEvent, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	posting, err := s.findPosting(ctx, app.InternshipID)
	if err != nil {
		return nil, err
	}
	if err := CanAct(principal, SubjectOf(app, posting), ActionView); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []models.ApplicationEvent{}, nil
	}
	return s.history.List(ctx, app.ID)
}

// ListMine returns the caller's applications with their posting, most recent first.
func (s *ApplicationService) ListMine(ctx context.Context, principal models.Principal) ([]dto.StudentApplicationView, error) {
	if err := CanAct(principal, AccessSubject{}, ActionListMine); err != nil {
		return nil, err
	}
	apps, err := s.apps.FindByStudent(ctx, principal.ID)
	if err != nil {
		return nil, internalError(err, "failed to list applications")
	}
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.InternshipID)
	}
	postings, err := s.postings.FindByIDs(ctx, distinct(ids))
	if err != nil {
		return nil, internalError(err, "failed to load internships")
	}
	sortByAppliedAtDesc(apps)
	return studentViews(apps, postings), nil
}

// StatsMine counts the caller's applications per status, withdrawn included.
func (s *ApplicationService) StatsMine(ctx context.Context, principal models.Principal) (*dto.StudentApplicationStats, error) {
	if err := CanAct(principal, AccessSubject{}, ActionListMine); err != nil {
		return nil, err
	}
	counts, err := s.apps.CountByStudent(ctx, principal.ID)
	if err != nil {
		return nil, internalError(err, "failed to count applications")
	}
	stats := studentStats(counts)
	return &stats, nil
}

// ListByInternship returns the applicants of a posting the caller owns. Withdrawn
// applications are left out and the stats cover exactly the returned set.
func (s *ApplicationService) ListByInternship(ctx context.Context, principal models.Principal, internshipID string) (*dto.InternshipApplications, error) {
	posting, apps, err := s.applicants(ctx, principal, internshipID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.StudentID)
	}
	profiles, err := s.profiles.FindByStudents(ctx, distinct(ids))
	if err != nil {
		return nil, internalError(err, "failed to load student profiles")
	}
	return &dto.InternshipApplications{
		Internship:   summarizePosting(posting),
		Count:        len(apps),
		Stats:        internshipStats(apps),
		Applications: candidateViews(apps, profiles),
	}, nil
}

// StatsByInternship returns the status breakdown of a posting the caller owns.
func (s *ApplicationService) StatsByInternship(ctx context.Context, principal models.Principal, internshipID string) (*dto.InternshipApplicationStats, error) {
	_, apps, err := s.applicants(ctx, principal, internshipID)
	if err != nil {
		return nil, err
	}
	stats := internshipStats(apps)
	return &stats, nil
}

func (s *ApplicationService) applicants(ctx context.Context, principal models.Principal, internshipID string) (*models.Posting, []models.Application, error) {
	posting, err := s.loadPosting(ctx, internshipID)
	if err != nil {
		return nil, nil, err
	}
	if err := CanAct(principal, SubjectOf(nil, posting), ActionListApplicants); err != nil {
		return nil, nil, err
	}
	apps, err := s.apps.FindByInternship(ctx, posting.ID)
	if err != nil {
		return nil, nil, internalError(err, "failed to list applications")
	}
	apps = withoutWithdrawn(apps)
	sortByAppliedAtDesc(apps)
	return posting, apps, nil
}

func (s *ApplicationService) loadApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, internalError(err, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) loadPosting(ctx context.Context, id string) (*models.Posting, error) {
	posting, err := s.findPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	if posting == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
	}
	return posting, nil
}

// findPosting returns nil without error when the posting no longer exists.
func (s *ApplicationService) findPosting(ctx context.Context, id string) (*models.Posting, error) {
	posting, err := s.postings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load internship")
	}
	return posting, nil
}

// save persists app only if its stored status is still from.
func (s *ApplicationService) save(ctx context.Context, app *models.Application, from models.ApplicationStatus) error {
	if err := s.apps.Save(ctx, app, from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		if errors.Is(err, repository.ErrStatusChanged) {
			return appErrors.Clone(appErrors.ErrInvalidState, "application status changed, reload and retry")
		}
		return internalError(err, "failed to save application")
	}
	return nil
}

func (s *ApplicationService) committed(ctx context.Context, principal models.Principal, action Action, event string, app *models.Application, from models.ApplicationStatus) {
	s.logger.Info("application "+string(action),
		zap.String("application_id", app.ID),
		zap.String("internship_id", app.InternshipID),
		zap.String("actor_id", principal.ID),
		zap.String("actor_role", string(principal.Role)),
		zap.String("from", string(from)),
		zap.String("to", string(app.Status)),
	)
	s.metrics.RecordTransition(action, from, app.Status)

	if s.history == nil {
		return
	}
	record := models.ApplicationEvent{
		ApplicationID: app.ID,
		Action:        event,
		ToStatus:      app.Status,
		ActorID:       principal.ID,
		ActorRole:     principal.Role,
	}
	if from != statusNone {
		prev := from
		record.FromStatus = &prev
	}
	s.history.Record(ctx, record)
}

func (s *ApplicationService) observeRejection(action Action, err error) {
	if err == nil {
		return
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code != appErrors.ErrInternal.Code {
		s.metrics.RecordRejection(action, appErr.Code)
	}
}

func validateCoverLetter(letter string) error {
	n := utf8.RuneCountInString(letter)
	if n < models.CoverLetterMinLength || n > models.CoverLetterMaxLength {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cover letter must be between %d and %d characters", models.CoverLetterMinLength, models.CoverLetterMaxLength))
	}
	return nil
}

func provided(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
