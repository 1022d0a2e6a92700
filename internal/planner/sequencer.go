package planner

import (
	"sort"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

// ReorderActivities moves the activity at oldIndex to newIndex and renumbers Order to
// match the new positions. Out of range indices return an unchanged copy.
func ReorderActivities(activities []models.Activity, oldIndex, newIndex int) []models.Activity {
	out := make([]models.Activity, len(activities))
	copy(out, activities)
	if oldIndex < 0 || oldIndex >= len(out) || newIndex < 0 || newIndex >= len(out) {
		return out
	}
	if oldIndex == newIndex {
		return out
	}

	moved := out[oldIndex]
	out = append(out[:oldIndex], out[oldIndex+1:]...)
	out = append(out[:newIndex], append([]models.Activity{moved}, out[newIndex:]...)...)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// GroupActivitiesByPhase partitions activities into the three fixed phases, each sorted
// by Order with ties kept in input order. Activities with an unknown phase are dropped.
func GroupActivitiesByPhase(activities []models.Activity) map[models.Phase][]models.Activity {
	groups := make(map[models.Phase][]models.Activity, len(models.Phases))
	for _, phase := range models.Phases {
		groups[phase] = []models.Activity{}
	}
	for _, activity := range activities {
		if !activity.Phase.Valid() {
			continue
		}
		groups[activity.Phase] = append(groups[activity.Phase], activity)
	}
	for _, phase := range models.Phases {
		group := groups[phase]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	}
	return groups
}

// NormalizeOrder renumbers Order to the slice position.
func NormalizeOrder(activities []models.Activity) []models.Activity {
	out := make([]models.Activity, len(activities))
	copy(out, activities)
	for i := range out {
		out[i].Order = i
	}
	return out
}
