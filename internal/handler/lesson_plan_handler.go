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

type lessonPlanService interface {
	List(ctx context.Context) ([]dto.LessonPlanResponse, error)
	Get(ctx context.Context, id string) (*dto.LessonPlanResponse, error)
	Create(ctx context.Context, req dto.LessonPlanRequest) (*models.LessonPlan, error)
	Update(ctx context.Context, id string, req dto.LessonPlanRequest) (*models.LessonPlan, error)
	Delete(ctx context.Context, id string) error
	ReorderActivities(ctx context.Context, id string, req dto.ReorderActivitiesRequest) (*models.LessonPlan, error)
	ActivityPhases(ctx context.Context, id string) (*dto.ActivityPhasesResponse, error)
}

// LessonPlanHandler exposes lesson plan CRUD and activity sequencing.
type LessonPlanHandler struct {
	service lessonPlanService
}

// NewLessonPlanHandler constructs the handler.
func NewLessonPlanHandler(svc lessonPlanService) *LessonPlanHandler {
	return &LessonPlanHandler{service: svc}
}

// List godoc
// @Summary List lesson plans
// @Tags Lesson Plans
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lesson-plans [get]
func (h *LessonPlanHandler) List(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, map[string]interface{}{"total": len(plans)})
}

// Get godoc
// @Summary Get a lesson plan
// @Tags Lesson Plans
// @Produce json
// @Param id path string true "Lesson plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lesson-plans/{id} [get]
func (h *LessonPlanHandler) Get(c *gin.Context) {
	id := requireParam(c, "id")
	if id == "" {
		return
	}
	plan, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create a lesson plan
// @Tags Lesson Plans
// @Accept json
// @Produce json
// @Param payload body dto.LessonPlanRequest true "Lesson plan"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lesson-plans [post]
func (h *LessonPlanHandler) Create(c *gin.Context) {
	var req dto.LessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid lesson plan payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Replace a lesson plan
// @Tags Lesson Plans
// @Accept json
// @Produce json
// @Param id path string true "Lesson plan ID"
// @Param payload body dto.LessonPlanRequest true "Lesson plan"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id} [put]
func (h *LessonPlanHandler) Update(c *gin.Context) {
	id := requireParam(c, "id")
	if id == "" {
		return
	}
	var req dto.LessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid lesson plan payload"))
		return
	}
	plan, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a lesson plan and release its block
// @Tags Lesson Plans
// @Param id path string true "Lesson plan ID"
// @Success 204
// @Router /lesson-plans/{id} [delete]
func (h *LessonPlanHandler) Delete(c *gin.Context) {
	id := requireParam(c, "id")
	if id == "" {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReorderActivities godoc
// @Summary Move an activity within a lesson plan
// @Tags Lesson Plans
// @Accept json
// @Produce json
// @Param id path string true "Lesson plan ID"
// @Param payload body dto.ReorderActivitiesRequest true "Indices"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id}/activities/reorder [post]
func (h *LessonPlanHandler) ReorderActivities(c *gin.Context) {
	id := requireParam(c, "id")
	if id == "" {
		return
	}
	var req dto.ReorderActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid reorder payload"))
		return
	}
	plan, err := h.service.ReorderActivities(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// ActivityPhases godoc
// @Summary Activities grouped by phase
// @Tags Lesson Plans
// @Produce json
// @Param id path string true "Lesson plan ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-plans/{id}/activities/phases [get]
func (h *LessonPlanHandler) ActivityPhases(c *gin.Context) {
	id := requireParam(c, "id")
	if id == "" {
		return
	}
	phases, err := h.service.ActivityPhases(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, phases, nil)
}
