package planner

import (
	"fmt"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

// AssignFailure names why an assignment was refused.
type AssignFailure string

const (
	ReasonNone                     AssignFailure = ""
	ReasonAlreadyAssignedElsewhere AssignFailure = "AlreadyAssignedElsewhere"
	ReasonBlockOccupied            AssignFailure = "BlockOccupied"
	ReasonDurationExceedsBlock     AssignFailure = "DurationExceedsBlock"
	ReasonNotFound                 AssignFailure = "NotFound"
)

// AssignResult is the outcome of AssignLessonToBlock. UpdatedBlocks is only set on success.
type AssignResult struct {
	Success       bool              `json:"success"`
	UpdatedBlocks []models.TimeBlock `json:"updatedBlocks,omitempty"`
	Reason        AssignFailure     `json:"reason,omitempty"`
	Error         string            `json:"error,omitempty"`
	Fit           *FitResult        `json:"fit,omitempty"`
}

// AssignLessonToBlock places plan into the block identified by blockID.
// A plan sitting in another block must be unassigned first; there is no implicit move.
// The input slice is never modified.
func AssignLessonToBlock(plan models.LessonPlan, blockID string, blocks []models.TimeBlock) AssignResult {
	if plan.ID == "" {
		return AssignResult{Reason: ReasonNotFound, Error: "lesson plan id required"}
	}
	target := indexOfBlock(blocks, blockID)
	if target < 0 {
		return AssignResult{Reason: ReasonNotFound, Error: fmt.Sprintf("time block %s not found", blockID)}
	}

	for i, block := range blocks {
		if i != target && block.Holds(plan.ID) {
			return AssignResult{
				Reason: ReasonAlreadyAssignedElsewhere,
				Error:  fmt.Sprintf("lesson plan %s is already assigned to block %s; unassign it first", plan.ID, block.ID),
			}
		}
	}

	block := blocks[target]
	if block.Assigned() && !block.Holds(plan.ID) {
		return AssignResult{
			Reason: ReasonBlockOccupied,
			Error:  fmt.Sprintf("time block %s already holds lesson plan %s", block.ID, *block.LessonPlanID),
		}
	}

	fit := ValidateFit(plan, block.Duration)
	if !fit.IsValid {
		return AssignResult{Reason: ReasonDurationExceedsBlock, Error: fit.Errors[0], Fit: &fit}
	}

	updated := cloneBlocks(blocks)
	planID := plan.ID
	updated[target].LessonPlanID = &planID
	return AssignResult{Success: true, UpdatedBlocks: updated, Fit: &fit}
}

// UnassignLessonFromBlock clears the block's lesson. Unknown or empty blocks return blocks unchanged.
func UnassignLessonFromBlock(blockID string, blocks []models.TimeBlock) []models.TimeBlock {
	target := indexOfBlock(blocks, blockID)
	if target < 0 || !blocks[target].Assigned() {
		return blocks
	}
	updated := cloneBlocks(blocks)
	updated[target].LessonPlanID = nil
	return updated
}

// GetAssignedLesson returns the plan held by blockID, or nil when the block is empty,
// unknown, or points at a plan that no longer exists.
func GetAssignedLesson(blockID string, blocks []models.TimeBlock, plans []models.LessonPlan) *models.LessonPlan {
	target := indexOfBlock(blocks, blockID)
	if target < 0 || !blocks[target].Assigned() {
		return nil
	}
	planID := *blocks[target].LessonPlanID
	for i := range plans {
		if plans[i].ID == planID {
			plan := plans[i]
			return &plan
		}
	}
	return nil
}

// ReleaseLesson clears every block that references planID and returns the ids of the
// touched blocks. Used when a plan is deleted so no block keeps a dangling id.
func ReleaseLesson(planID string, blocks []models.TimeBlock) ([]models.TimeBlock, []string) {
	var touched []string
	for _, block := range blocks {
		if block.Holds(planID) {
			touched = append(touched, block.ID)
		}
	}
	if len(touched) == 0 {
		return blocks, nil
	}
	updated := cloneBlocks(blocks)
	for i := range updated {
		if updated[i].Holds(planID) {
			updated[i].LessonPlanID = nil
		}
	}
	return updated, touched
}

// BlockForLesson finds the block currently holding planID.
func BlockForLesson(planID string, blocks []models.TimeBlock) (models.TimeBlock, bool) {
	for _, block := range blocks {
		if block.Holds(planID) {
			return block, true
		}
	}
	return models.TimeBlock{}, false
}

func indexOfBlock(blocks []models.TimeBlock, blockID string) int {
	if blockID == "" {
		return -1
	}
	for i := range blocks {
		if blocks[i].ID == blockID {
			return i
		}
	}
	return -1
}

func cloneBlocks(blocks []models.TimeBlock) []models.TimeBlock {
	out := make([]models.TimeBlock, len(blocks))
	copy(out, blocks)
	for i := range out {
		if out[i].LessonPlanID != nil {
			id := *out[i].LessonPlanID
			out[i].LessonPlanID = &id
		}
	}
	return out
}
