package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-api/internal/middleware"
	"github.com/noah-isme/internship-api/internal/models"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
	"github.com/noah-isme/internship-api/pkg/response"
)

// principalFromContext writes a 401 and returns false when no authenticated principal is present.
func principalFromContext(c *gin.Context) (models.Principal, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Principal{}, false
	}
	return claims.Principal(), true
}
