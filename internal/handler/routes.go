package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-api/internal/middleware"
	"github.com/noah-isme/internship-api/internal/models"
)

// RegisterApplicationRoutes mounts the application endpoints under rg. auth must populate
// the principal; applyLimit throttles submissions and may be nil.
func RegisterApplicationRoutes(rg *gin.RouterGroup, h *ApplicationHandler, auth, applyLimit gin.HandlerFunc) {
	students := middleware.RequireRoles(models.RoleStudent)
	companies := middleware.RequireRoles(models.RoleCompany)
	parties := middleware.RequireRoles(models.RoleStudent, models.RoleCompany)

	apps := rg.Group("/applications", auth)

	apply := []gin.HandlerFunc{students}
	if applyLimit != nil {
		apply = append(apply, applyLimit)
	}
	apps.POST("", append(apply, h.Apply)...)
	apps.GET("/my-applications", students, h.ListMine)
	apps.GET("/stats/me", students, h.StatsMine)

	apps.GET("/internship/:internshipId", companies, h.ListByInternship)
	apps.GET("/internship/:internshipId/stats", companies, h.StatsByInternship)
	apps.GET("/internship/:internshipId/export", companies, h.ExportByInternship)

	apps.GET("/:id", parties, h.Get)
	apps.GET("/:id/history", parties, h.History)
	apps.PUT("/:id/status", companies, h.UpdateStatus)
	apps.PUT("/:id", students, h.Edit)
	apps.DELETE("/:id", students, h.Withdraw)
}

// RegisterSystemRoutes mounts probes and the metrics endpoint.
func RegisterSystemRoutes(r gin.IRoutes, h *MetricsHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
}
