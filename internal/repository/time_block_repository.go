package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

const timeBlockColumns = "id, day_of_week, start_time, duration, lesson_plan_id, created_at, updated_at"

// TimeBlockRepository persists the weekly schedule grid.
type TimeBlockRepository struct {
	db *sqlx.DB
}

// NewTimeBlockRepository constructs a TimeBlockRepository.
func NewTimeBlockRepository(db *sqlx.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

func (r *TimeBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns all blocks grouped by day. Start times are strings, so callers sort within a day.
func (r *TimeBlockRepository) List(ctx context.Context) ([]models.TimeBlock, error) {
	query := "SELECT " + timeBlockColumns + " FROM time_blocks ORDER BY day_of_week ASC, id ASC"
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query); err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}
	return blocks, nil
}

// FindByID fetches a single block. sql.ErrNoRows is returned unchanged.
func (r *TimeBlockRepository) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	query := "SELECT " + timeBlockColumns + " FROM time_blocks WHERE id = $1"
	var block models.TimeBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Count reports how many blocks exist.
func (r *TimeBlockRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM time_blocks"); err != nil {
		return 0, fmt.Errorf("count time blocks: %w", err)
	}
	return total, nil
}

// BulkCreate inserts blocks, filling ids and timestamps when missing.
func (r *TimeBlockRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.TimeBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO time_blocks (id, day_of_week, start_time, duration, lesson_plan_id, created_at, updated_at) VALUES (:id, :day_of_week, :start_time, :duration, :lesson_plan_id, :created_at, :updated_at)`
	for i := range blocks {
		block := &blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		if block.CreatedAt.IsZero() {
			block.CreatedAt = now
		}
		block.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, block); err != nil {
			return fmt.Errorf("create time block %s: %w", block.ID, err)
		}
	}
	return nil
}

// SetAssignment writes the block's lesson plan reference. A nil planID clears it.
func (r *TimeBlockRepository) SetAssignment(ctx context.Context, exec sqlx.ExtContext, blockID string, planID *string) error {
	const query = `UPDATE time_blocks SET lesson_plan_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, blockID, planID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set time block assignment: %w", err)
	}
	return expectAffected(res, "set time block assignment")
}
