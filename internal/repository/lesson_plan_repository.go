package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

const lessonPlanColumns = "id, name, subject, duration, activities, objectives, materials, created_at, updated_at"

// LessonPlanRepository persists lesson plans. Activities, objectives and materials live in JSONB columns.
type LessonPlanRepository struct {
	db *sqlx.DB
}

// NewLessonPlanRepository constructs a LessonPlanRepository.
func NewLessonPlanRepository(db *sqlx.DB) *LessonPlanRepository {
	return &LessonPlanRepository{db: db}
}

func (r *LessonPlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns every lesson plan in creation order.
func (r *LessonPlanRepository) List(ctx context.Context) ([]models.LessonPlan, error) {
	query := "SELECT " + lessonPlanColumns + " FROM lesson_plans ORDER BY created_at ASC, id ASC"
	var plans []models.LessonPlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list lesson plans: %w", err)
	}
	return plans, nil
}

// FindByID fetches a lesson plan. sql.ErrNoRows is returned unchanged when it does not exist.
func (r *LessonPlanRepository) FindByID(ctx context.Context, id string) (*models.LessonPlan, error) {
	query := "SELECT " + lessonPlanColumns + " FROM lesson_plans WHERE id = $1"
	var plan models.LessonPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create inserts a new lesson plan, assigning an id when missing.
func (r *LessonPlanRepository) Create(ctx context.Context, plan *models.LessonPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	const query = `INSERT INTO lesson_plans (id, name, subject, duration, activities, objectives, materials, created_at, updated_at) VALUES (:id, :name, :subject, :duration, :activities, :objectives, :materials, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create lesson plan: %w", err)
	}
	return nil
}

// Update overwrites a lesson plan. Returns sql.ErrNoRows when the plan is unknown.
func (r *LessonPlanRepository) Update(ctx context.Context, plan *models.LessonPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_plans SET name = :name, subject = :subject, duration = :duration, activities = :activities, objectives = :objectives, materials = :materials, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, plan)
	if err != nil {
		return fmt.Errorf("update lesson plan: %w", err)
	}
	return expectAffected(res, "update lesson plan")
}

// Delete removes a lesson plan. Callers clear time block references in the same transaction.
func (r *LessonPlanRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM lesson_plans WHERE id = $1`
	res, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete lesson plan: %w", err)
	}
	return expectAffected(res, "delete lesson plan")
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
