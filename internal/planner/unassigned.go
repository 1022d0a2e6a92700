package planner

import "github.com/noah-isme/classroom-planner-api/internal/models"

// GetUnassignedLessons returns the plans no block references, in input order.
func GetUnassignedLessons(plans []models.LessonPlan, blocks []models.TimeBlock) []models.LessonPlan {
	assigned := make(map[string]struct{}, len(blocks))
	for _, block := range blocks {
		if block.Assigned() {
			assigned[*block.LessonPlanID] = struct{}{}
		}
	}
	result := make([]models.LessonPlan, 0, len(plans))
	for _, plan := range plans {
		if _, ok := assigned[plan.ID]; !ok {
			result = append(result, plan)
		}
	}
	return result
}
