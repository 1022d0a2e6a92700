package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

func TestParseStartTime(t *testing.T) {
	cases := map[string]int{
		"8:00 AM":  480,
		"12:00 AM": 0,
		"12:30 PM": 750,
		"1:35 PM":  815,
		"11:59 pm": 1439,
		" 9:05AM ": 545,
	}
	for raw, want := range cases {
		got, err := ParseStartTime(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseStartTimeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "8 AM", "13:00 PM", "0:15 AM", "8:60 AM", "08:00", "8:00 XM"} {
		_, err := ParseStartTime(raw)
		assert.Error(t, err, raw)
	}
}

func TestFormatStartTimeRoundTrip(t *testing.T) {
	for _, raw := range []string{"8:00 AM", "12:00 AM", "12:45 PM", "2:25 PM"} {
		minutes, err := ParseStartTime(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, FormatStartTime(minutes))
	}
	assert.Equal(t, "12:10 AM", FormatStartTime(minutesPerDay+10))
}

func TestSortBlocks(t *testing.T) {
	blocks := []models.TimeBlock{
		{ID: "late", DayOfWeek: models.Monday, StartTime: "1:00 PM"},
		{ID: "tue", DayOfWeek: models.Tuesday, StartTime: "8:00 AM"},
		{ID: "bad", DayOfWeek: models.Monday, StartTime: "whenever"},
		{ID: "early", DayOfWeek: models.Monday, StartTime: "9:00 AM"},
	}

	sorted := SortBlocks(blocks)

	ids := []string{}
	for _, b := range sorted {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"early", "late", "bad", "tue"}, ids)
	assert.Equal(t, "late", blocks[0].ID)
}
