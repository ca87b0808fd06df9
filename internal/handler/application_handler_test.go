package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-api/internal/dto"
	"github.com/noah-isme/internship-api/internal/middleware"
	"github.com/noah-isme/internship-api/internal/models"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
)

type applicationServiceMock struct {
	app          *models.Application
	detail       *dto.ApplicationDetail
	events       []models.ApplicationEvent
	mine         []dto.StudentApplicationView
	statsMine    *dto.StudentApplicationStats
	listing      *dto.InternshipApplications
	postingStats *dto.InternshipApplicationStats
	err          error

	called        string
	lastPrincipal models.Principal
	lastID        string
	lastApply     dto.ApplyRequest
	lastStatus    dto.UpdateStatusRequest
	lastEdit      dto.EditApplicationRequest
}

func (m *applicationServiceMock) record(name string, p models.Principal, id string) {
	m.called = name
	m.lastPrincipal = p
	m.lastID = id
}

func (m *applicationServiceMock) Apply(ctx context.Context, p models.Principal, req dto.ApplyRequest) (*models.Application, error) {
	m.record("Apply", p, "")
	m.lastApply = req
	return m.app, m.err
}

func (m *applicationServiceMock) UpdateStatus(ctx context.Context, p models.Principal, id string, req dto.UpdateStatusRequest) (*models.Application, error) {
	m.record("UpdateStatus", p, id)
	m.lastStatus = req
	return m.app, m.err
}

func (m *applicationServiceMock) Edit(ctx context.Context, p models.Principal, id string, req dto.EditApplicationRequest) (*models.Application, error) {
	m.record("Edit", p, id)
	m.lastEdit = req
	return m.app, m.err
}

func (m *applicationServiceMock) Withdraw(ctx context.Context, p models.Principal, id string) (*models.Application, error) {
	m.record("Withdraw", p, id)
	return m.app, m.err
}

func (m *applicationServiceMock) Get(ctx context.Context, p models.Principal, id string) (*dto.ApplicationDetail, error) {
	m.record("Get", p, id)
	return m.detail, m.err
}

func (m *applicationServiceMock) History(ctx context.Context, p models.Principal, id string) ([]models.ApplicationEvent, error) {
	m.record("History", p, id)
	return m.events, m.err
}

func (m *applicationServiceMock) ListMine(ctx context.Context, p models.Principal) ([]dto.StudentApplicationView, error) {
	m.record("ListMine", p, "")
	return m.mine, m.err
}

func (m *applicationServiceMock) StatsMine(ctx context.Context, p models.Principal) (*dto.StudentApplicationStats, error) {
	m.record("StatsMine", p, "")
	return m.statsMine, m.err
}

func (m *applicationServiceMock) ListByInternship(ctx context.Context, p models.Principal, internshipID string) (*dto.InternshipApplications, error) {
	m.record("ListByInternship", p, internshipID)
	return m.listing, m.err
}

func (m *applicationServiceMock) StatsByInternship(ctx context.Context, p models.Principal, internshipID string) (*dto.InternshipApplicationStats, error) {
	m.record("StatsByInternship", p, internshipID)
	return m.postingStats, m.err
}

type exporterMock struct {
	file   *dto.ExportFile
	err    error
	format string
}

func (m *exporterMock) ExportApplicants(ctx context.Context, p models.Principal, internshipID, format string) (*dto.ExportFile, error) {
	m.format = format
	return m.file, m.err
}

// fakeAuth reads the principal from test headers instead of a token.
func fakeAuth(c *gin.Context) {
	id := c.GetHeader("X-Test-User")
	if id == "" {
		c.Next()
		return
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: id, Role: models.Role(c.GetHeader("X-Test-Role"))})
	c.Next()
}

func newApplicationRouter(svc *applicationServiceMock, exports *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterApplicationRoutes(r.Group("/api/v1"), NewApplicationHandler(svc, exports), fakeAuth, nil)
	return r
}

func doRequest(r http.Handler, method, path, userID string, role models.Role, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
		req.Header.Set("X-Test-Role", string(role))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
	Meta  map[string]any   `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestApplicationHandlerApply(t *testing.T) {
	svc := &applicationServiceMock{app: &models.Application{ID: "a1", Status: models.StatusPending}}
	r := newApplicationRouter(svc, &exporterMock{})

	w := doRequest(r, http.MethodPost, "/api/v1/applications", "stu-1", models.RoleStudent, map[string]string{
		"internshipId": "p-1",
		"coverLetter":  "letter",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Apply", svc.called)
	assert.Equal(t, models.Principal{ID: "stu-1", Role: models.RoleStudent}, svc.lastPrincipal)
	assert.Equal(t, "p-1", svc.lastApply.InternshipID)

	var app models.Application
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &app))
	assert.Equal(t, "a1", app.ID)
}

func TestApplicationHandlerApplyRejectsMalformedJSON(t *testing.T) {
	svc := &applicationServiceMock{}
	r := newApplicationRouter(svc, &exporterMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewBufferString("{"))
	req.Header.Set("X-Test-User", "stu-1")
	req.Header.Set("X-Test-Role", "student")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, w).Error.Code)
	assert.Empty(t, svc.called)
}

func TestApplicationHandlerMapsServiceErrors(t *testing.T) {
	tests := []struct {
		err    *appErrors.Error
		status int
	}{
		{appErrors.ErrDuplicateApplication, http.StatusConflict},
		{appErrors.ErrPostingClosed, http.StatusConflict},
		{appErrors.ErrDeadlinePassed, http.StatusConflict},
		{appErrors.ErrValidation, http.StatusBadRequest},
		{appErrors.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.err.Code, func(t *testing.T) {
			r := newApplicationRouter(&applicationServiceMock{err: tc.err}, &exporterMock{})
			w := doRequest(r, http.MethodPost, "/api/v1/applications", "stu-1", models.RoleStudent, map[string]string{"internshipId": "p-1"})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.err.Code, decode(t, w).Error.Code)
		})
	}
}

func TestApplicationHandlerRoleGates(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		role   models.Role
		status int
	}{
		{"company cannot apply", http.MethodPost, "/api/v1/applications", models.RoleCompany, http.StatusForbidden},
		{"company cannot list mine", http.MethodGet, "/api/v1/applications/my-applications", models.RoleCompany, http.StatusForbidden},
		{"student cannot list applicants", http.MethodGet, "/api/v1/applications/internship/p-1", models.RoleStudent, http.StatusForbidden},
		{"student cannot update status", http.MethodPut, "/api/v1/applications/a1/status", models.RoleStudent, http.StatusForbidden},
		{"company cannot withdraw", http.MethodDelete, "/api/v1/applications/a1", models.RoleCompany, http.StatusForbidden},
		{"admin cannot view", http.MethodGet, "/api/v1/applications/a1", models.RoleAdmin, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &applicationServiceMock{}
			r := newApplicationRouter(svc, &exporterMock{})
			w := doRequest(r, tc.method, tc.path, "u-1", tc.role, map[string]string{})
			assert.Equal(t, tc.status, w.Code)
			assert.Empty(t, svc.called)
		})
	}
}

func TestApplicationHandlerRequiresPrincipal(t *testing.T) {
	r := newApplicationRouter(&applicationServiceMock{}, &exporterMock{})
	w := doRequest(r, http.MethodGet, "/api/v1/applications/my-applications", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApplicationHandlerRouting(t *testing.T) {
	tests := []struct {
		method string
		path   string
		role   models.Role
		called string
		id     string
	}{
		{http.MethodGet, "/api/v1/applications/my-applications", models.RoleStudent, "ListMine", ""},
		{http.MethodGet, "/api/v1/applications/stats/me", models.RoleStudent, "StatsMine", ""},
		{http.MethodGet, "/api/v1/applications/a1", models.RoleStudent, "Get", "a1"},
		{http.MethodGet, "/api/v1/applications/a1", models.RoleCompany, "Get", "a1"},
		{http.MethodGet, "/api/v1/applications/a1/history", models.RoleCompany, "History", "a1"},
		{http.MethodGet, "/api/v1/applications/internship/p-1", models.RoleCompany, "ListByInternship", "p-1"},
		{http.MethodGet, "/api/v1/applications/internship/p-1/stats", models.RoleCompany, "StatsByInternship", "p-1"},
		{http.MethodDelete, "/api/v1/applications/a1", models.RoleStudent, "Withdraw", "a1"},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path+" as "+string(tc.role), func(t *testing.T) {
			svc := &applicationServiceMock{
				app:          &models.Application{ID: "a1"},
				detail:       &dto.ApplicationDetail{},
				mine:         []dto.StudentApplicationView{},
				statsMine:    &dto.StudentApplicationStats{},
				listing:      &dto.InternshipApplications{},
				postingStats: &dto.InternshipApplicationStats{},
			}
			r := newApplicationRouter(svc, &exporterMock{})
			w := doRequest(r, tc.method, tc.path, "u-1", tc.role, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.called, svc.called)
			assert.Equal(t, tc.id, svc.lastID)
		})
	}
}

func TestApplicationHandlerListMineIncludesCount(t *testing.T) {
	svc := &applicationServiceMock{mine: []dto.StudentApplicationView{{}, {}}}
	r := newApplicationRouter(svc, &exporterMock{})

	w := doRequest(r, http.MethodGet, "/api/v1/applications/my-applications", "stu-1", models.RoleStudent, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w).Meta["count"])
}

func TestApplicationHandlerUpdateStatus(t *testing.T) {
	svc := &applicationServiceMock{app: &models.Application{ID: "a1", Status: models.StatusAccepted}}
	r := newApplicationRouter(svc, &exporterMock{})

	w := doRequest(r, http.MethodPut, "/api/v1/applications/a1/status", "co-1", models.RoleCompany, map[string]string{
		"status":         "accepted",
		"companyMessage": "welcome aboard",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UpdateStatus", svc.called)
	assert.Equal(t, models.StatusAccepted, svc.lastStatus.Status)
	require.NotNil(t, svc.lastStatus.CompanyMessage)
	assert.Equal(t, "welcome aboard", *svc.lastStatus.CompanyMessage)
	assert.Nil(t, svc.lastStatus.CompanyNotes)
}

func TestApplicationHandlerEdit(t *testing.T) {
	svc := &applicationServiceMock{err: appErrors.Clone(appErrors.ErrInvalidState, "not pending")}
	r := newApplicationRouter(svc, &exporterMock{})

	w := doRequest(r, http.MethodPut, "/api/v1/applications/a1", "stu-1", models.RoleStudent, map[string]string{"resumeUrl": "https://cv"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Edit", svc.called)
	assert.Nil(t, svc.lastEdit.CoverLetter)
	require.NotNil(t, svc.lastEdit.ResumeURL)
	assert.Equal(t, appErrors.ErrInvalidState.Code, decode(t, w).Error.Code)
}

func TestApplicationHandlerExport(t *testing.T) {
	exports := &exporterMock{file: &dto.ExportFile{Filename: "applicants.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("a,b\n")}}
	r := newApplicationRouter(&applicationServiceMock{}, exports)

	w := doRequest(r, http.MethodGet, "/api/v1/applications/internship/p-1/export?format=csv", "co-1", models.RoleCompany, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, `attachment; filename="applicants.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
