package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scheduler-engine/internal/middleware"
	"github.com/noah-isme/scheduler-engine/internal/models"
)

func claimsFromContext(c *gin.Context) (models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return models.JWTClaims{}, false
	}
	claims, ok := value.(models.JWTClaims)
	return claims, ok
}
