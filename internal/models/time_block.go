package models

import "time"

// Weekday indexes used by time blocks: 0 is Monday, 4 is Friday.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// DayNames maps a block's DayOfWeek to a display label.
var DayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// TimeBlock is a slot in the weekly schedule holding at most one lesson plan.
type TimeBlock struct {
	ID           string    `db:"id" json:"id"`
	DayOfWeek    int       `db:"day_of_week" json:"dayOfWeek"`
	StartTime    string    `db:"start_time" json:"startTime"`
	Duration     int       `db:"duration" json:"duration"`
	LessonPlanID *string   `db:"lesson_plan_id" json:"lessonPlanId"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// Assigned reports whether the block currently holds a lesson plan.
func (b TimeBlock) Assigned() bool {
	return b.LessonPlanID != nil && *b.LessonPlanID != ""
}

// Holds reports whether the block holds the given lesson plan.
func (b TimeBlock) Holds(planID string) bool {
	return b.Assigned() && *b.LessonPlanID == planID
}

// DayName returns the weekday label, or an empty string when out of range.
func (b TimeBlock) DayName() string {
	if b.DayOfWeek < Monday || b.DayOfWeek > Friday {
		return ""
	}
	return DayNames[b.DayOfWeek]
}
