package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-api/internal/models"
)

// ApplicationEventRepository stores the append-only application history.
type ApplicationEventRepository struct {
	db *sqlx.DB
}

// NewApplicationEventRepository constructs an ApplicationEventRepository.
func NewApplicationEventRepository(db *sqlx.DB) *ApplicationEventRepository {
	return &ApplicationEventRepository{db: db}
}

// Insert appends an event. Re-inserting the same ID is ignored so retried deliveries stay idempotent.
func (r *ApplicationEventRepository) Insert(ctx context.Context, event *models.ApplicationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO application_events (id, application_id, action, from_status, to_status, actor_id, actor_role, request_id, created_at)
        VALUES (:id, :application_id, :action, :from_status, :to_status, :actor_id, :actor_role, :request_id, :created_at)
        ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert application event: %w", err)
	}
	return nil
}

// ListByApplication returns the history of one application, oldest first.
func (r *ApplicationEventRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.ApplicationEvent, error) {
	const query = `SELECT id, application_id, action, from_status, to_status, actor_id, actor_role, request_id, created_at
        FROM application_events WHERE application_id = $1 ORDER BY created_at ASC, id ASC`
	events := []models.ApplicationEvent{}
	if err := r.db.SelectContext(ctx, &events, query, applicationID); err != nil {
		return nil, fmt.Errorf("list application events: %w", err)
	}
	return events, nil
}
