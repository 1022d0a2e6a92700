package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

// Period is one slot of the daily template repeated across the week.
type Period struct {
	Start    string `json:"start"`
	Duration int    `json:"duration"`
}

// ParsePeriods reads a template such as "8:00 AM/45,8:50 AM/45".
func ParsePeriods(raw string) ([]Period, error) {
	var periods []Period
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		start, length, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("period %q: expected START/MINUTES", part)
		}
		if _, err := ParseStartTime(start); err != nil {
			return nil, fmt.Errorf("period %q: %w", part, err)
		}
		duration, err := strconv.Atoi(strings.TrimSpace(length))
		if err != nil || duration <= 0 {
			return nil, fmt.Errorf("period %q: duration must be a positive number of minutes", part)
		}
		periods = append(periods, Period{Start: strings.TrimSpace(start), Duration: duration})
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("no periods defined")
	}
	return periods, nil
}

// BuildWeek expands the daily periods into empty blocks for Monday through Friday.
// Block ids follow block-<day>-<period>.
func BuildWeek(periods []Period) []models.TimeBlock {
	blocks := make([]models.TimeBlock, 0, len(periods)*len(models.DayNames))
	for day := models.Monday; day <= models.Friday; day++ {
		for i, period := range periods {
			start := period.Start
			if minutes, err := ParseStartTime(start); err == nil {
				start = FormatStartTime(minutes)
			}
			blocks = append(blocks, models.TimeBlock{
				ID:        fmt.Sprintf("block-%d-%d", day, i),
				DayOfWeek: day,
				StartTime: start,
				Duration:  period.Duration,
			})
		}
	}
	return blocks
}
