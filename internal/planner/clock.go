package planner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

const minutesPerDay = 24 * 60

var startTimePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AP]M)$`)

// ParseStartTime converts an "H:MM AM/PM" label into minutes since midnight.
func ParseStartTime(raw string) (int, error) {
	match := startTimePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(raw)))
	if match == nil {
		return 0, fmt.Errorf("invalid start time %q: expected H:MM AM/PM", raw)
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, fmt.Errorf("invalid start time %q: out of range", raw)
	}
	total := (hour%12)*60 + minute
	if match[3] == "PM" {
		total += 12 * 60
	}
	return total, nil
}

// FormatStartTime renders minutes since midnight as "H:MM AM/PM".
func FormatStartTime(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	hour, minute := minutes/60, minutes%60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}

// SortBlocks orders blocks by day, then start time, then id. Unparseable start times sort last within their day.
func SortBlocks(blocks []models.TimeBlock) []models.TimeBlock {
	out := cloneBlocks(blocks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		am, bm := startMinutes(a), startMinutes(b)
		if am != bm {
			return am < bm
		}
		return a.ID < b.ID
	})
	return out
}

func startMinutes(block models.TimeBlock) int {
	m, err := ParseStartTime(block.StartTime)
	if err != nil {
		return minutesPerDay
	}
	return m
}
