package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-api/internal/dto"
	"github.com/noah-isme/internship-api/internal/models"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
	"github.com/noah-isme/internship-api/pkg/response"
)

type applicationService interface {
	Apply(ctx context.Context, principal models.Principal, req dto.ApplyRequest) (*models.Application, error)
	UpdateStatus(ctx context.Context, principal models.Principal, id string, req dto.UpdateStatusRequest) (*models.Application, error)
	Edit(ctx context.Context, principal models.Principal, id string, req dto.EditApplicationRequest) (*models.Application, error)
	Withdraw(ctx context.Context, principal models.Principal, id string) (*models.Application, error)
	Get(ctx context.Context, principal models.Principal, id string) (*dto.ApplicationDetail, error)
	History(ctx context.Context, principal models.Principal, id string) ([]models.ApplicationEvent, error)
	ListMine(ctx context.Context, principal models.Principal) ([]dto.StudentApplicationView, error)
	StatsMine(ctx context.Context, principal models.Principal) (*dto.StudentApplicationStats, error)
	ListByInternship(ctx context.Context, principal models.Principal, internshipID string) (*dto.InternshipApplications, error)
	StatsByInternship(ctx context.Context, principal models.Principal, internshipID string) (*dto.InternshipApplicationStats, error)
}

type applicantExporter interface {
	ExportApplicants(ctx context.Context, principal models.Principal, internshipID, format string) (*dto.ExportFile, error)
}

// ApplicationHandler exposes the application lifecycle endpoints.
type ApplicationHandler struct {
	applications applicationService
	exports      applicantExporter
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications applicationService, exports applicantExporter) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, exports: exports}
}

// Apply godoc
// @Summary Apply to an internship
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ApplyRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	app, err := h.applications.Apply(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// ListMine godoc
// @Summary List my applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /applications/my-applications [get]
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	views, err := h.applications.ListMine(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, map[string]interface{}{"count": len(views)})
}

// StatsMine godoc
// @Summary Count my applications per status
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /applications/stats/me [get]
func (h *ApplicationHandler) StatsMine(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	stats, err := h.applications.StatsMine(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Get godoc
// @Summary Get application detail
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	detail, err := h.applications.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// History godoc
// @Summary Application history
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/history [get]
func (h *ApplicationHandler) History(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	events, err := h.applications.History(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}

// ListByInternship godoc
// @Summary List applicants of an internship
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param internshipId path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /applications/internship/{internshipId} [get]
func (h *ApplicationHandler) ListByInternship(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	listing, err := h.applications.ListByInternship(c.Request.Context(), principal, c.Param("internshipId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing)
}

// StatsByInternship godoc
// @Summary Applicant breakdown of an internship
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param internshipId path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /applications/internship/{internshipId}/stats [get]
func (h *ApplicationHandler) StatsByInternship(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	stats, err := h.applications.StatsByInternship(c.Request.Context(), principal, c.Param("internshipId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// ExportByInternship godoc
// @Summary Export applicants of an internship
// @Tags Applications
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param internshipId path string true "Internship ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /applications/internship/{internshipId}/export [get]
func (h *ApplicationHandler) ExportByInternship(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	file, err := h.exports.ExportApplicants(c.Request.Context(), principal, c.Param("internshipId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// UpdateStatus godoc
// @Summary Decide on an application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	app, err := h.applications.UpdateStatus(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app)
}

// Edit godoc
// @Summary Edit a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.EditApplicationRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id} [put]
func (h *ApplicationHandler) Edit(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.EditApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	app, err := h.applications.Edit(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app)
}

// Withdraw godoc
// @Summary Withdraw an application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	app, err := h.applications.Withdraw(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, map[string]interface{}{"message": "application withdrawn"})
}
