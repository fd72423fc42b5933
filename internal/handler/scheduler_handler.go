package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/scheduler-engine/internal/dto"
	"github.com/noah-isme/scheduler-engine/internal/service"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
	"github.com/noah-isme/scheduler-engine/pkg/response"
)

// SchedulerHandler exposes the scheduling job queue and generation surface
// (spec.md §6.1).
type SchedulerHandler struct {
	service   *service.SchedulerService
	validator *validator.Validate
}

// NewSchedulerHandler constructs the handler.
func NewSchedulerHandler(svc *service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{service: svc, validator: validator.New()}
}

// SubmitJob godoc
// @Summary Submit a scheduling job
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SchedulingRequest true "Scheduling request"
// @Success 202 {object} response.Envelope
// @Router /api/v1/scheduler/jobs [post]
func (h *SchedulerHandler) SubmitJob(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrAuth)
		return
	}

	var req dto.SchedulingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInput.Code, appErrors.ErrInput.Status, "invalid scheduling request"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInput.Code, appErrors.ErrInput.Status, "scheduling request failed validation"))
		return
	}

	token := bearerToken(c)
	status, err := h.service.SubmitJob(c.Request.Context(), token, claims.InstitutionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, status, "job queued")
}

// JobStatus godoc
// @Summary Get a scheduling job's status
// @Tags Scheduler
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/scheduler/jobs/{job_id} [get]
func (h *SchedulerHandler) JobStatus(c *gin.Context) {
	status, err := h.service.JobStatus(c.Param("job_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, "")
}

// CancelJob godoc
// @Summary Cancel a queued or running scheduling job
// @Tags Scheduler
// @Param job_id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/scheduler/jobs/{job_id} [delete]
func (h *SchedulerHandler) CancelJob(c *gin.Context) {
	if err := h.service.CancelJob(c.Param("job_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nil, "cancellation requested")
}

// JobAudit godoc
// @Summary Get a scheduling job's audit record (supplemental)
// @Tags Scheduler
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/scheduler/jobs/{job_id}/audit [get]
func (h *SchedulerHandler) JobAudit(c *gin.Context) {
	record, err := h.service.JobAudit(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, "")
}

// ListGenerations godoc
// @Summary List schedule generations
// @Tags Scheduler
// @Produce json
// @Param skip query int false "Skip"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Envelope
// @Router /api/v1/scheduler/generations [get]
func (h *SchedulerHandler) ListGenerations(c *gin.Context) {
	skip := parseIntQuery(c, "skip", 0)
	limit := parseIntQuery(c, "limit", 20)

	token := bearerToken(c)
	generations, err := h.service.ListGenerations(c.Request.Context(), token, skip, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, generations, "")
}

// GetGeneration godoc
// @Summary Get a single schedule generation
// @Tags Scheduler
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/scheduler/generations/{id} [get]
func (h *SchedulerHandler) GetGeneration(c *gin.Context) {
	token := bearerToken(c)
	gen, err := h.service.GetGeneration(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gen, "")
}

// DeleteGeneration godoc
// @Summary Delete a schedule generation (admin only)
// @Tags Scheduler
// @Param id path string true "Generation ID"
// @Success 204
// @Router /api/v1/scheduler/generations/{id} [delete]
func (h *SchedulerHandler) DeleteGeneration(c *gin.Context) {
	token := bearerToken(c)
	if err := h.service.DeleteGeneration(c.Request.Context(), token, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
