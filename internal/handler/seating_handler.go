package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/response"
)

type seatingService interface {
	Chart(ctx context.Context) (*dto.SeatingChart, bool, error)
	InitGrid(ctx context.Context, req dto.SeatGridRequest) (*dto.SeatingChart, error)
	AutoArrange(ctx context.Context, req dto.AutoArrangeRequest) (*dto.SeatingChart, error)
	Clear(ctx context.Context) (*dto.SeatingChart, error)
	Swap(ctx context.Context, req dto.SwapSeatsRequest) (*dto.SeatingChart, error)
}

// SeatingHandler exposes the seating chart.
type SeatingHandler struct {
	service seatingService
}

// NewSeatingHandler constructs the handler.
func NewSeatingHandler(svc seatingService) *SeatingHandler {
	return &SeatingHandler{service: svc}
}

// Chart godoc
// @Summary Current seating chart with unseated students and rival conflicts
// @Tags Seating
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /seating [get]
func (h *SeatingHandler) Chart(c *gin.Context) {
	chart, hit, err := h.service.Chart(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart, withCacheMeta(c, hit))
}

// InitGrid godoc
// @Summary Rebuild the grid empty
// @Tags Seating
// @Accept json
// @Produce json
// @Param payload body dto.SeatGridRequest true "Grid size"
// @Success 200 {object} response.Envelope
// @Router /seating/grid [post]
func (h *SeatingHandler) InitGrid(c *gin.Context) {
	var req dto.SeatGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid seat grid payload"))
		return
	}
	chart, err := h.service.InitGrid(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart, nil)
}

// AutoArrange godoc
// @Summary Seat the roster keeping rivals apart
// @Tags Seating
// @Accept json
// @Produce json
// @Param payload body dto.AutoArrangeRequest false "Options"
// @Success 200 {object} response.Envelope
// @Router /seating/auto-arrange [post]
func (h *SeatingHandler) AutoArrange(c *gin.Context) {
	var req dto.AutoArrangeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Invalid(err, "invalid auto-arrange payload"))
			return
		}
	}
	chart, err := h.service.AutoArrange(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart, map[string]interface{}{"unseated": len(chart.Unseated)})
}

// Clear godoc
// @Summary Empty every seat
// @Tags Seating
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /seating/clear [post]
func (h *SeatingHandler) Clear(c *gin.Context) {
	chart, err := h.service.Clear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart, nil)
}

// Swap godoc
// @Summary Exchange two seats
// @Tags Seating
// @Accept json
// @Produce json
// @Param payload body dto.SwapSeatsRequest true "Seats"
// @Success 200 {object} response.Envelope
// @Router /seating/swap [post]
func (h *SeatingHandler) Swap(c *gin.Context) {
	var req dto.SwapSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid seat swap payload"))
		return
	}
	chart, err := h.service.Swap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chart, nil)
}
