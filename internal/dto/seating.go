package dto

import (
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
)

// SeatGridRequest rebuilds the classroom grid.
type SeatGridRequest struct {
	Rows int `json:"rows" validate:"required,min=1,max=20"`
	Cols int `json:"cols" validate:"required,min=1,max=20"`
}

// AutoArrangeRequest controls whether existing seats are kept.
type AutoArrangeRequest struct {
	KeepExisting bool `json:"keepExisting"`
}

// SwapSeatsRequest exchanges the occupants of two seats.
type SwapSeatsRequest struct {
	SeatA string `json:"seatA" validate:"required"`
	SeatB string `json:"seatB" validate:"required,nefield=SeatA"`
}

// SeatingChart is the grid together with advisory information.
type SeatingChart struct {
	Rows      int                   `json:"rows"`
	Cols      int                   `json:"cols"`
	Seats     []models.SeatPosition `json:"seats"`
	Unseated  []string              `json:"unseated"`
	Conflicts []planner.RivalPair   `json:"conflicts"`
}
