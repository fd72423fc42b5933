package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scheduler-engine/internal/middleware"
	"github.com/noah-isme/scheduler-engine/internal/models"
)

func setTestClaims(c *gin.Context) {
	c.Set(middleware.ContextUserKey, models.JWTClaims{
		Subject:       "teacher-1",
		InstitutionID: "inst-1",
		Role:          models.RoleAdmin,
	})
}
