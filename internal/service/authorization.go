package service

import (
	"fmt"

	"github.com/noah-isme/internship-api/internal/models"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
)

// Action names a command a principal issues against an application.
type Action string

const (
	ActionApply          Action = "apply"
	ActionView           Action = "view"
	ActionUpdateStatus   Action = "update_status"
	ActionEdit           Action = "edit"
	ActionWithdraw       Action = "withdraw"
	ActionListMine       Action = "list_mine"
	ActionListApplicants Action = "list_applicants"
)

// AccessSubject carries the ownership facts an authorization decision depends on.
// OwnerID is the company owning the posting; it is resolved through the posting,
// never stored on the application.
type AccessSubject struct {
	StudentID string
	OwnerID   string
}

// SubjectOf builds the subject of an application whose posting is known. A nil
// posting leaves the owner unresolved, so only the student can act.
func SubjectOf(app *models.Application, posting *models.Posting) AccessSubject {
	subject := AccessSubject{}
	if app != nil {
		subject.StudentID = app.StudentID
	}
	if posting != nil {
		subject.OwnerID = posting.OwnerID
	}
	return subject
}

// CanAct is the single authorization predicate evaluated before every read and
// mutation. It returns nil when allowed and a Forbidden error otherwise.
func CanAct(principal models.Principal, subject AccessSubject, action Action) error {
	if principal.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing principal")
	}

	allowed := false
	switch action {
	case ActionApply, ActionListMine:
		allowed = principal.Is(models.RoleStudent)
	case ActionView:
		allowed = isOwningStudent(principal, subject) || isOwningCompany(principal, subject)
	case ActionUpdateStatus, ActionListApplicants:
		allowed = isOwningCompany(principal, subject)
	case ActionEdit, ActionWithdraw:
		allowed = isOwningStudent(principal, subject)
	}

	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not allowed to %s this application", humanize(action)))
	}
	return nil
}

func isOwningStudent(p models.Principal, s AccessSubject) bool {
	return p.Is(models.RoleStudent) && s.StudentID != "" && p.ID == s.StudentID
}

func isOwningCompany(p models.Principal, s AccessSubject) bool {
	return p.Is(models.RoleCompany) && s.OwnerID != "" && p.ID == s.OwnerID
}

func humanize(a Action) string {
	switch a {
	case ActionUpdateStatus:
		return "update the status of"
	case ActionListMine, ActionListApplicants:
		return "list"
	}
	return string(a)
}

type transitionKey struct {
	from   models.ApplicationStatus
	action Action
	role   models.Role
}

// statusNone is the state of an application that does not exist yet.
const statusNone models.ApplicationStatus = ""

// transitions lists every legal (state, action, role) triple and the statuses it may lead to.
// Anything absent is rejected, which makes withdrawn terminal.
var transitions = buildTransitions()

func buildTransitions() map[transitionKey][]models.ApplicationStatus {
	table := map[transitionKey][]models.ApplicationStatus{
		{statusNone, ActionApply, models.RoleStudent}:          {models.StatusPending},
		{models.StatusPending, ActionEdit, models.RoleStudent}: {models.StatusPending},
	}
	for _, from := range models.CompanyStatuses {
		table[transitionKey{from, ActionUpdateStatus, models.RoleCompany}] = models.CompanyStatuses
		table[transitionKey{from, ActionWithdraw, models.RoleStudent}] = []models.ApplicationStatus{models.StatusWithdrawn}
	}
	return table
}

// NextStatus resolves the status reached when role performs action on an application in
// status from. An empty requested status selects the only target of single-target actions.
func NextStatus(from models.ApplicationStatus, action Action, role models.Role, requested models.ApplicationStatus) (models.ApplicationStatus, error) {
	targets, ok := transitions[transitionKey{from, action, role}]
	if !ok {
		return statusNone, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot %s an application in status %q", humanize(action), from))
	}
	if requested == statusNone {
		if len(targets) == 1 {
			return targets[0], nil
		}
		return statusNone, appErrors.Clone(appErrors.ErrValidation, "target status is required")
	}
	for _, target := range targets {
		if target == requested {
			return target, nil
		}
	}
	return statusNone, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot move application from %q to %q", from, requested))
}
