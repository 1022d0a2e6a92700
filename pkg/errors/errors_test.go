package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Error(), "boom")
}

func TestCloneKeepsCodeAndMatchesSentinel(t *testing.T) {
	cloned := Clone(ErrBlockOccupied, "block-1 holds math-1")
	assert.Equal(t, "block-1 holds math-1", cloned.Message)
	assert.True(t, errors.Is(cloned, ErrBlockOccupied))
	assert.False(t, errors.Is(cloned, ErrAlreadyAssignedElsewhere))
	assert.Equal(t, "time block already holds a lesson plan", ErrBlockOccupied.Message)
}

func TestWithDetails(t *testing.T) {
	detailed := WithDetails(ErrDurationExceedsBlock, map[string]any{"overage": 5})
	assert.Equal(t, 5, detailed.Details["overage"])
	assert.Nil(t, ErrDurationExceedsBlock.Details)
	assert.Nil(t, FromError(nil))
}

func TestInternalAndInvalidHelpers(t *testing.T) {
	cause := errors.New("connection reset")

	internal := Internal(cause, "failed to load time blocks")
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.ErrorIs(t, internal, cause)
	assert.ErrorIs(t, internal, ErrInternal)

	invalid := Invalid(cause, "invalid assignment payload")
	assert.Equal(t, ErrValidation.Code, invalid.Code)
	assert.Equal(t, http.StatusBadRequest, invalid.Status)
	assert.False(t, errors.Is(invalid, ErrInternal))
}
