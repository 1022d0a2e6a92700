package dto

import "github.com/noah-isme/classroom-planner-api/internal/models"

// ActivityInput describes one activity in a create/update payload.
type ActivityInput struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=120"`
	Duration int    `json:"duration" validate:"min=0,max=480"`
	Phase    string `json:"phase" validate:"required,oneof=intro main closing"`
	Grouping string `json:"grouping" validate:"omitempty,oneof=whole-class small-group pairs individual"`
}

// ObjectiveInput is a learning goal in a payload.
type ObjectiveInput struct {
	ID          string `json:"id"`
	Description string `json:"description" validate:"required,max=500"`
}

// MaterialInput is a resource in a payload.
type MaterialInput struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=120"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// LessonPlanRequest is the body of POST and PUT /lesson-plans.
type LessonPlanRequest struct {
	Name       string           `json:"name" validate:"required,max=200"`
	Subject    string           `json:"subject" validate:"required,oneof=math reading science social-studies art pe"`
	Duration   int              `json:"duration" validate:"required,min=1,max=480"`
	Activities []ActivityInput  `json:"activities" validate:"omitempty,dive"`
	Objectives []ObjectiveInput `json:"objectives" validate:"omitempty,dive"`
	Materials  []MaterialInput  `json:"materials" validate:"omitempty,dive"`
}

// ReorderActivitiesRequest moves one activity to a new position.
type ReorderActivitiesRequest struct {
	OldIndex int `json:"oldIndex" validate:"min=0"`
	NewIndex int `json:"newIndex" validate:"min=0"`
}

// LessonPlanResponse adds schedule context to a plan.
type LessonPlanResponse struct {
	models.LessonPlan
	PlannedDuration int     `json:"plannedDuration"`
	BlockID         *string `json:"blockId,omitempty"`
}

// ActivityPhasesResponse groups a plan's activities by phase.
type ActivityPhasesResponse struct {
	LessonPlanID string                             `json:"lessonPlanId"`
	Phases       map[models.Phase][]models.Activity `json:"phases"`
}
