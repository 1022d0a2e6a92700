// Package planner holds the pure scheduling rules behind the classroom dashboard:
// lesson fit checks, the time block assignment registry, seating arrangement and
// activity ordering. Nothing here performs I/O; every operation returns new values
// and reports domain failures as results rather than Go errors.
package planner

import (
	"fmt"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

// FitStatus is the tier shown next to a lesson on the schedule board.
type FitStatus string

const (
	FitOK    FitStatus = "fits"
	FitTight FitStatus = "tight"
	FitOver  FitStatus = "over"
)

// A lesson filling more than tightNumerator/tightDenominator of its block is flagged as tight.
const (
	tightNumerator   = 9
	tightDenominator = 10
)

// FitResult describes how a lesson plan fits a block of a given length.
type FitResult struct {
	IsValid  bool      `json:"isValid"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings"`
	Total    int       `json:"total"`
	Status   FitStatus `json:"status"`
}

// PlannedDuration is the sum of the plan's activity durations, falling back to the
// plan's target duration when it has no activities yet.
func PlannedDuration(plan models.LessonPlan) int {
	if len(plan.Activities) == 0 {
		return plan.Duration
	}
	total := 0
	for _, activity := range plan.Activities {
		total += activity.Duration
	}
	return total
}

// ValidateFit checks plan against a block of blockDuration minutes.
func ValidateFit(plan models.LessonPlan, blockDuration int) FitResult {
	total := PlannedDuration(plan)
	result := FitResult{
		IsValid:  total <= blockDuration,
		Errors:   []string{},
		Warnings: []string{},
		Total:    total,
		Status:   FitOK,
	}

	switch {
	case !result.IsValid:
		result.Status = FitOver
		result.Errors = append(result.Errors,
			fmt.Sprintf("lesson runs %s over the %d-minute block", pluralMinutes(total-blockDuration), blockDuration))
	case total*tightDenominator > blockDuration*tightNumerator:
		result.Status = FitTight
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("tight timing, %s remaining", pluralMinutes(blockDuration-total)))
	}
	return result
}

func pluralMinutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}
