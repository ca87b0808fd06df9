package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-api/internal/models"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
)

func TestCanAct(t *testing.T) {
	student := models.Principal{ID: "stu-1", Role: models.RoleStudent}
	otherStudent := models.Principal{ID: "stu-2", Role: models.RoleStudent}
	company := models.Principal{ID: "co-1", Role: models.RoleCompany}
	otherCompany := models.Principal{ID: "co-2", Role: models.RoleCompany}
	admin := models.Principal{ID: "adm-1", Role: models.RoleAdmin}
	subject := AccessSubject{StudentID: "stu-1", OwnerID: "co-1"}

	tests := []struct {
		name      string
		principal models.Principal
		subject   AccessSubject
		action    Action
		allowed   bool
	}{
		{"student applies", student, AccessSubject{}, ActionApply, true},
		{"company cannot apply", company, AccessSubject{}, ActionApply, false},
		{"admin cannot apply", admin, AccessSubject{}, ActionApply, false},
		{"student lists own", student, AccessSubject{}, ActionListMine, true},
		{"company cannot list mine", company, AccessSubject{}, ActionListMine, false},
		{"owning student views", student, subject, ActionView, true},
		{"owning company views", company, subject, ActionView, true},
		{"other student cannot view", otherStudent, subject, ActionView, false},
		{"other company cannot view", otherCompany, subject, ActionView, false},
		{"admin cannot view", admin, subject, ActionView, false},
		{"company view needs resolved owner", company, AccessSubject{StudentID: "stu-1"}, ActionView, false},
		{"owner updates status", company, subject, ActionUpdateStatus, true},
		{"student cannot update status", student, subject, ActionUpdateStatus, false},
		{"other company cannot update status", otherCompany, subject, ActionUpdateStatus, false},
		{"owner lists applicants", company, AccessSubject{OwnerID: "co-1"}, ActionListApplicants, true},
		{"other company cannot list applicants", otherCompany, AccessSubject{OwnerID: "co-1"}, ActionListApplicants, false},
		{"owning student edits", student, subject, ActionEdit, true},
		{"company cannot edit", company, subject, ActionEdit, false},
		{"other student cannot edit", otherStudent, subject, ActionEdit, false},
		{"owning student withdraws", student, subject, ActionWithdraw, true},
		{"company cannot withdraw", company, subject, ActionWithdraw, false},
		{"company id matching student id is not the student", models.Principal{ID: "stu-1", Role: models.RoleCompany}, subject, ActionWithdraw, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CanAct(tc.principal, tc.subject, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, appErrors.ErrForbidden)
		})
	}
}

func TestCanActRequiresPrincipal(t *testing.T) {
	err := CanAct(models.Principal{Role: models.RoleStudent}, AccessSubject{}, ActionApply)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestNextStatus(t *testing.T) {
	t.Run("apply creates pending", func(t *testing.T) {
		next, err := NextStatus(statusNone, ActionApply, models.RoleStudent, statusNone)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, next)
	})

	t.Run("company reaches every company status from every open status", func(t *testing.T) {
		for _, from := range models.CompanyStatuses {
			for _, to := range models.CompanyStatuses {
				next, err := NextStatus(from, ActionUpdateStatus, models.RoleCompany, to)
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, next)
			}
		}
	})

	t.Run("company cannot set withdrawn", func(t *testing.T) {
		_, err := NextStatus(models.StatusReviewing, ActionUpdateStatus, models.RoleCompany, models.StatusWithdrawn)
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})

	t.Run("company update needs a target", func(t *testing.T) {
		_, err := NextStatus(models.StatusPending, ActionUpdateStatus, models.RoleCompany, statusNone)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	})

	t.Run("edit only while pending", func(t *testing.T) {
		next, err := NextStatus(models.StatusPending, ActionEdit, models.RoleStudent, statusNone)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, next)

		for _, from := range []models.ApplicationStatus{models.StatusReviewing, models.StatusAccepted, models.StatusRejected, models.StatusWithdrawn} {
			_, err := NextStatus(from, ActionEdit, models.RoleStudent, statusNone)
			assert.ErrorIs(t, err, appErrors.ErrInvalidState, "edit from %s", from)
		}
	})

	t.Run("withdraw from any open status", func(t *testing.T) {
		for _, from := range models.CompanyStatuses {
			next, err := NextStatus(from, ActionWithdraw, models.RoleStudent, statusNone)
			require.NoError(t, err)
			assert.Equal(t, models.StatusWithdrawn, next)
		}
	})

	t.Run("withdrawn is terminal", func(t *testing.T) {
		for _, key := range []struct {
			action Action
			role   models.Role
		}{
			{ActionUpdateStatus, models.RoleCompany},
			{ActionEdit, models.RoleStudent},
			{ActionWithdraw, models.RoleStudent},
		} {
			_, err := NextStatus(models.StatusWithdrawn, key.action, key.role, models.StatusPending)
			assert.ErrorIs(t, err, appErrors.ErrInvalidState, "%s by %s", key.action, key.role)
		}
	})

	t.Run("roles are part of the key", func(t *testing.T) {
		_, err := NextStatus(models.StatusPending, ActionWithdraw, models.RoleCompany, statusNone)
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
		_, err = NextStatus(models.StatusPending, ActionUpdateStatus, models.RoleStudent, models.StatusAccepted)
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})
}
