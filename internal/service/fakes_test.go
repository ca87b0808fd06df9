package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/noah-isme/internship-api/internal/models"
	"github.com/noah-isme/internship-api/internal/repository"
)

// memoryApplications mimics the unique index on (student_id, internship_id).
type memoryApplications struct {
	mu   sync.Mutex
	byID map[string]models.Application
	seq  int

	// hideExisting makes the advisory lookup miss, as when a concurrent insert lands in between.
	hideExisting bool
	saveErr      error
	// afterFind runs once after the next FindByID has taken its snapshot.
	afterFind func()
}

func newMemoryApplications(apps ...models.Application) *memoryApplications {
	m := &memoryApplications{byID: map[string]models.Application{}}
	for _, app := range apps {
		m.byID[app.ID] = app
	}
	return m
}

func (m *memoryApplications) Insert(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.StudentID == app.StudentID && existing.InternshipID == app.InternshipID {
			return repository.ErrDuplicateApplication
		}
	}
	m.seq++
	if app.ID == "" {
		app.ID = fmt.Sprintf("app-%d", m.seq)
	}
	app.UpdatedAt = app.AppliedAt
	m.byID[app.ID] = *app
	return nil
}

func (m *memoryApplications) FindByID(ctx context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	app, ok := m.byID[id]
	hook := m.afterFind
	m.afterFind = nil
	m.mu.Unlock()
	if !ok {
		return nil, sql.ErrNoRows
	}
	if hook != nil {
		hook()
	}
	return &app, nil
}

func (m *memoryApplications) FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideExisting {
		return nil, sql.ErrNoRows
	}
	for _, app := range m.byID {
		if app.StudentID == studentID && app.InternshipID == internshipID {
			found := app
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryApplications) FindByStudent(ctx context.Context, studentID string) ([]models.Application, error) {
	return m.filter(func(a models.Application) bool { return a.StudentID == studentID }), nil
}

func (m *memoryApplications) FindByInternship(ctx context.Context, internshipID string) ([]models.Application, error) {
	return m.filter(func(a models.Application) bool { return a.InternshipID == internshipID }), nil
}

func (m *memoryApplications) CountByStudent(ctx context.Context, studentID string) ([]models.StatusCount, error) {
	counts := map[models.ApplicationStatus]int{}
	for _, app := range m.filter(func(a models.Application) bool { return a.StudentID == studentID }) {
		counts[app.Status]++
	}
	out := make([]models.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, models.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (m *memoryApplications) Save(ctx context.Context, app *models.Application, expected models.ApplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.byID[app.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if stored.Status != expected {
		return repository.ErrStatusChanged
	}
	m.byID[app.ID] = *app
	return nil
}

func (m *memoryApplications) filter(keep func(models.Application) bool) []models.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Application{}
	for _, app := range m.byID {
		if keep(app) {
			out = append(out, app)
		}
	}
	return out
}

type memoryPostings map[string]models.Posting

func (m memoryPostings) FindByID(ctx context.Context, id string) (*models.Posting, error) {
	posting, ok := m[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &posting, nil
}

func (m memoryPostings) FindByIDs(ctx context.Context, ids []string) (map[string]models.Posting, error) {
	out := map[string]models.Posting{}
	for _, id := range ids {
		if posting, ok := m[id]; ok {
			out[id] = posting
		}
	}
	return out, nil
}

type memoryProfiles map[string]models.StudentProfile

func (m memoryProfiles) FindByStudent(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	profile, ok := m[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &profile, nil
}

func (m memoryProfiles) FindByStudents(ctx context.Context, studentIDs []string) (map[string]models.StudentProfile, error) {
	out := map[string]models.StudentProfile{}
	for _, id := range studentIDs {
		if profile, ok := m[id]; ok {
			out[id] = profile
		}
	}
	return out, nil
}

type recordingHistory struct {
	mu     sync.Mutex
	events []models.ApplicationEvent
}

func (h *recordingHistory) Record(ctx context.Context, event models.ApplicationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHistory) List(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []models.ApplicationEvent{}
	for _, e := range h.events {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memoryEventStore struct {
	mu     sync.Mutex
	events []models.ApplicationEvent
	err    error
}

func (s *memoryEventStore) Insert(ctx context.Context, event *models.ApplicationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *memoryEventStore) ListByApplication(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ApplicationEvent{}
	for _, e := range s.events {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memoryEventStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
