package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-api/internal/models"
	"github.com/noah-isme/internship-api/pkg/config"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
	"github.com/noah-isme/internship-api/pkg/jobs"
	"github.com/noah-isme/internship-api/pkg/middleware/requestid"
)

type applicationEventStore interface {
	Insert(ctx context.Context, event *models.ApplicationEvent) error
	ListByApplication(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error)
}

// ApplicationEventService keeps the history of every lifecycle command. Writes go through
// an in-process queue so a slow history table never delays the command itself.
type ApplicationEventService struct {
	repo    applicationEventStore
	queue   *jobs.Queue[models.ApplicationEvent]
	metrics *MetricsService
	logger  *zap.Logger
}

// NewApplicationEventService constructs the history writer. When cfg.Enabled is false
// events are written synchronously.
func NewApplicationEventService(repo applicationEventStore, cfg config.EventsConfig, metrics *MetricsService, logger *zap.Logger) *ApplicationEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ApplicationEventService{repo: repo, metrics: metrics, logger: logger}
	if cfg.Enabled {
		svc.queue = jobs.NewQueue[models.ApplicationEvent]("application-events", svc.persist, jobs.QueueConfig{
			Workers:    cfg.Workers,
			BufferSize: cfg.BufferSize,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
	}
	return svc
}

// Start launches the queue workers.
func (s *ApplicationEventService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop flushes buffered events and stops the workers.
func (s *ApplicationEventService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Record stores an event. Failures are logged, never returned: history must not fail a committed command.
func (s *ApplicationEventService) Record(ctx context.Context, event models.ApplicationEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestid.FromContext(ctx)
	}

	if s.queue != nil {
		err := s.queue.Enqueue(ctx, event)
		if err == nil {
			return
		}
		if !errors.Is(err, jobs.ErrNotRunning) {
			s.logger.Warn("enqueue application event", zap.String("application_id", event.ApplicationID), zap.Error(err))
		}
	}

	if err := s.persist(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("record application event", zap.String("application_id", event.ApplicationID), zap.String("action", event.Action), zap.Error(err))
	}
}

// List returns the history of one application, oldest first.
func (s *ApplicationEventService) List(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error) {
	events, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application history")
	}
	return events, nil
}

func (s *ApplicationEventService) persist(ctx context.Context, event models.ApplicationEvent) error {
	err := s.repo.Insert(ctx, &event)
	s.metrics.RecordEventWrite(err == nil)
	return err
}
