package models

import "time"

// Application event actions.
const (
	EventApplied       = "APPLIED"
	EventStatusChanged = "STATUS_CHANGED"
	EventEdited        = "EDITED"
	EventWithdrawn     = "WITHDRAWN"
)

// ApplicationEvent is one entry of an application's history.
type ApplicationEvent struct {
	ID            string             `db:"id" json:"id"`
	ApplicationID string             `db:"application_id" json:"applicationId"`
	Action        string             `db:"action" json:"action"`
	FromStatus    *ApplicationStatus `db:"from_status" json:"fromStatus,omitempty"`
	ToStatus      ApplicationStatus  `db:"to_status" json:"toStatus"`
	ActorID       string             `db:"actor_id" json:"actorId"`
	ActorRole     Role               `db:"actor_role" json:"actorRole"`
	RequestID     string             `db:"request_id" json:"requestId,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
}
