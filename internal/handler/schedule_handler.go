package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/response"
)

type scheduleService interface {
	Board(ctx context.Context) (*dto.ScheduleBoard, bool, error)
	Unassigned(ctx context.Context) ([]dto.BoardLesson, error)
	ValidateFit(ctx context.Context, req dto.AssignmentRequest) (*dto.FitCheckResponse, error)
	Assign(ctx context.Context, req dto.AssignmentRequest) (*dto.AssignmentResponse, error)
	Unassign(ctx context.Context, blockID string) (*dto.BoardBlock, error)
	SeedWeek(ctx context.Context) ([]models.TimeBlock, error)
	CreateBlock(ctx context.Context, req dto.CreateTimeBlockRequest) (*models.TimeBlock, error)
}

// ScheduleHandler exposes the weekly board and the assignment registry.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Board godoc
// @Summary Weekly schedule board
// @Description Blocks ordered by day and start time, each with its lesson and fit status, plus the unscheduled sidebar
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Board(c *gin.Context) {
	board, hit, err := h.service.Board(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, withCacheMeta(c, hit))
}

// Unassigned godoc
// @Summary Lesson plans not placed in any block
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/unassigned [get]
func (h *ScheduleHandler) Unassigned(c *gin.Context) {
	lessons, err := h.service.Unassigned(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, map[string]interface{}{"total": len(lessons)})
}

// ValidateFit godoc
// @Summary Check a lesson plan against a block without assigning
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentRequest true "Plan and block"
// @Success 200 {object} response.Envelope
// @Router /schedule/validate [post]
func (h *ScheduleHandler) ValidateFit(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid fit check payload"))
		return
	}
	result, err := h.service.ValidateFit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Assign godoc
// @Summary Assign a lesson plan to a block
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentRequest true "Plan and block"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule/assign [post]
func (h *ScheduleHandler) Assign(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid assignment payload"))
		return
	}
	result, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unassign godoc
// @Summary Clear a block's lesson
// @Tags Schedule
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/blocks/{id}/assignment [delete]
func (h *ScheduleHandler) Unassign(c *gin.Context) {
	id := requireParam(c, "id")
	if id == "" {
		return
	}
	block, err := h.service.Unassign(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// SeedWeek godoc
// @Summary Create the default Monday to Friday blocks
// @Tags Schedule
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/seed [post]
func (h *ScheduleHandler) SeedWeek(c *gin.Context) {
	blocks, err := h.service.SeedWeek(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, blocks, map[string]interface{}{"total": len(blocks)})
}

// CreateBlock godoc
// @Summary Add a time block
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimeBlockRequest true "Block"
// @Success 201 {object} response.Envelope
// @Router /schedule/blocks [post]
func (h *ScheduleHandler) CreateBlock(c *gin.Context) {
	var req dto.CreateTimeBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid time block payload"))
		return
	}
	block, err := h.service.CreateBlock(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}
