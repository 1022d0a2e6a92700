package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

func strPtr(v string) *string { return &v }

func weekBlocks() []models.TimeBlock {
	return []models.TimeBlock{
		{ID: "A", DayOfWeek: models.Monday, StartTime: "8:00 AM", Duration: 45},
		{ID: "B", DayOfWeek: models.Monday, StartTime: "8:50 AM", Duration: 45},
		{ID: "C", DayOfWeek: models.Tuesday, StartTime: "8:00 AM", Duration: 30},
	}
}

func countHolding(blocks []models.TimeBlock, planID string) int {
	n := 0
	for _, b := range blocks {
		if b.Holds(planID) {
			n++
		}
	}
	return n
}

func TestAssignLessonToBlockSuccess(t *testing.T) {
	blocks := weekBlocks()
	plan := planWithActivities("math-1", 20, 20)

	result := AssignLessonToBlock(plan, "A", blocks)

	require.True(t, result.Success)
	assert.Equal(t, ReasonNone, result.Reason)
	require.NotNil(t, result.Fit)
	assert.Equal(t, FitOK, result.Fit.Status)

	got := GetAssignedLesson("A", result.UpdatedBlocks, []models.LessonPlan{planWithActivities("other", 5), plan})
	require.NotNil(t, got)
	assert.Equal(t, "math-1", got.ID)
	assert.Equal(t, 1, countHolding(result.UpdatedBlocks, "math-1"))

	assert.Nil(t, blocks[0].LessonPlanID, "input must not be mutated")
}

func TestAssignLessonToBlockAlreadyAssignedElsewhere(t *testing.T) {
	plan := planWithActivities("math-1", 40)
	first := AssignLessonToBlock(plan, "A", weekBlocks())
	require.True(t, first.Success)

	second := AssignLessonToBlock(plan, "B", first.UpdatedBlocks)

	assert.False(t, second.Success)
	assert.Equal(t, ReasonAlreadyAssignedElsewhere, second.Reason)
	assert.Contains(t, second.Error, "unassign it first")
	assert.Nil(t, second.UpdatedBlocks)
	assert.Equal(t, "math-1", *first.UpdatedBlocks[0].LessonPlanID)
	assert.Nil(t, first.UpdatedBlocks[1].LessonPlanID)
}

func TestAssignLessonToBlockOccupied(t *testing.T) {
	blocks := weekBlocks()
	blocks[1].LessonPlanID = strPtr("reading-1")

	result := AssignLessonToBlock(planWithActivities("math-1", 10), "B", blocks)

	assert.False(t, result.Success)
	assert.Equal(t, ReasonBlockOccupied, result.Reason)
	assert.Equal(t, "reading-1", *blocks[1].LessonPlanID)
}

func TestAssignLessonToBlockDurationExceeds(t *testing.T) {
	result := AssignLessonToBlock(planWithActivities("math-1", 30, 20), "A", weekBlocks())

	assert.False(t, result.Success)
	assert.Equal(t, ReasonDurationExceedsBlock, result.Reason)
	assert.Contains(t, result.Error, "runs 5 minutes over")
	require.NotNil(t, result.Fit)
	assert.False(t, result.Fit.IsValid)
}

func TestAssignLessonToBlockTightStillSucceeds(t *testing.T) {
	result := AssignLessonToBlock(planWithActivities("math-1", 29), "C", weekBlocks())

	require.True(t, result.Success)
	assert.Equal(t, FitTight, result.Fit.Status)
}

func TestAssignLessonToBlockNotFound(t *testing.T) {
	result := AssignLessonToBlock(planWithActivities("math-1", 10), "missing", weekBlocks())

	assert.False(t, result.Success)
	assert.Equal(t, ReasonNotFound, result.Reason)
	assert.Equal(t, "time block missing not found", result.Error)

	blocks := weekBlocks()
	result = AssignLessonToBlock(planWithActivities("", 10), blocks[0].ID, blocks)
	assert.Equal(t, ReasonNotFound, result.Reason)
	assert.Equal(t, "lesson plan id required", result.Error)
}

func TestAssignLessonToBlockSameBlockIsNoop(t *testing.T) {
	plan := planWithActivities("math-1", 10)
	first := AssignLessonToBlock(plan, "A", weekBlocks())
	require.True(t, first.Success)

	again := AssignLessonToBlock(plan, "A", first.UpdatedBlocks)

	require.True(t, again.Success)
	assert.Equal(t, first.UpdatedBlocks, again.UpdatedBlocks)
}

func TestAssignResultDoesNotAliasInput(t *testing.T) {
	blocks := weekBlocks()
	blocks[2].LessonPlanID = strPtr("art-1")

	result := AssignLessonToBlock(planWithActivities("math-1", 10), "A", blocks)
	require.True(t, result.Success)

	*result.UpdatedBlocks[2].LessonPlanID = "changed"
	assert.Equal(t, "art-1", *blocks[2].LessonPlanID)
}

func TestUnassignLessonFromBlockIdempotent(t *testing.T) {
	assigned := AssignLessonToBlock(planWithActivities("math-1", 10), "A", weekBlocks())
	require.True(t, assigned.Success)

	once := UnassignLessonFromBlock("A", assigned.UpdatedBlocks)
	twice := UnassignLessonFromBlock("A", once)

	assert.Equal(t, once, twice)
	assert.Nil(t, once[0].LessonPlanID)
	assert.NotNil(t, assigned.UpdatedBlocks[0].LessonPlanID)
}

func TestUnassignLessonFromBlockUnknownIsNoop(t *testing.T) {
	blocks := weekBlocks()
	assert.Equal(t, blocks, UnassignLessonFromBlock("nope", blocks))
}

func TestGetAssignedLessonToleratesDanglingID(t *testing.T) {
	blocks := weekBlocks()
	blocks[0].LessonPlanID = strPtr("deleted")

	assert.Nil(t, GetAssignedLesson("A", blocks, []models.LessonPlan{planWithActivities("math-1", 10)}))
	assert.Nil(t, GetAssignedLesson("B", blocks, nil))
	assert.Nil(t, GetAssignedLesson("missing", blocks, nil))
}

func TestReleaseLessonClearsReferences(t *testing.T) {
	blocks := weekBlocks()
	blocks[1].LessonPlanID = strPtr("math-1")
	blocks[2].LessonPlanID = strPtr("art-1")

	updated, touched := ReleaseLesson("math-1", blocks)

	assert.Equal(t, []string{"B"}, touched)
	assert.Nil(t, updated[1].LessonPlanID)
	assert.Equal(t, "art-1", *updated[2].LessonPlanID)
	assert.Equal(t, "math-1", *blocks[1].LessonPlanID)

	same, none := ReleaseLesson("ghost", blocks)
	assert.Nil(t, none)
	assert.Equal(t, blocks, same)
}

func TestBlockForLesson(t *testing.T) {
	blocks := weekBlocks()
	blocks[2].LessonPlanID = strPtr("art-1")

	block, ok := BlockForLesson("art-1", blocks)
	assert.True(t, ok)
	assert.Equal(t, "C", block.ID)

	_, ok = BlockForLesson("math-1", blocks)
	assert.False(t, ok)
}
