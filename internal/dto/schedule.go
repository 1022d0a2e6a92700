package dto

import (
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
)

// AssignmentRequest names a lesson plan and a target block.
type AssignmentRequest struct {
	LessonPlanID string `json:"lessonPlanId" validate:"required"`
	BlockID      string `json:"blockId" validate:"required"`
}

// CreateTimeBlockRequest adds a single block to the week.
type CreateTimeBlockRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=4"`
	StartTime string `json:"startTime" validate:"required"`
	Duration  int    `json:"duration" validate:"required,min=1,max=480"`
}

// BoardLesson is the lesson summary rendered inside a block.
type BoardLesson struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Subject  models.Subject `json:"subject"`
	Duration int            `json:"duration"`
}

// BoardBlock is one cell of the weekly board.
type BoardBlock struct {
	models.TimeBlock
	Day          string             `json:"day"`
	StartMinutes int                `json:"startMinutes"`
	Lesson       *BoardLesson       `json:"lesson,omitempty"`
	Fit          *planner.FitResult `json:"fit,omitempty"`
}

// ScheduleBoard is the full weekly schedule with the unscheduled sidebar.
type ScheduleBoard struct {
	Blocks     []BoardBlock  `json:"blocks"`
	Unassigned []BoardLesson `json:"unassigned"`
}

// FitCheckResponse answers a standalone validation request.
type FitCheckResponse struct {
	LessonPlanID string            `json:"lessonPlanId"`
	BlockID      string            `json:"blockId"`
	Fit          planner.FitResult `json:"fit"`
}

// AssignmentResponse reports a committed assignment.
type AssignmentResponse struct {
	Block BoardBlock        `json:"block"`
	Fit   planner.FitResult `json:"fit"`
}
