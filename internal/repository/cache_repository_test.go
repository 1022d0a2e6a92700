package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "planner:schedule:board", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "planner:schedule:board", map[string]int{"blocks": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "planner:*"))
}
