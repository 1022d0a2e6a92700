package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/middleware/requestid"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type lessonPlanRepository interface {
	List(ctx context.Context) ([]models.LessonPlan, error)
	FindByID(ctx context.Context, id string) (*models.LessonPlan, error)
	Create(ctx context.Context, plan *models.LessonPlan) error
	Update(ctx context.Context, plan *models.LessonPlan) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type blockAssignmentStore interface {
	List(ctx context.Context) ([]models.TimeBlock, error)
	SetAssignment(ctx context.Context, exec sqlx.ExtContext, blockID string, planID *string) error
}

// LessonPlanService manages lesson plans and keeps the schedule free of dangling references.
type LessonPlanService struct {
	plans     lessonPlanRepository
	blocks    blockAssignmentStore
	tx        txProvider
	cache     *CacheService
	lock      *sync.Mutex
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonPlanService constructs a LessonPlanService. lock must be the one shared with ScheduleService.
func NewLessonPlanService(plans lessonPlanRepository, blocks blockAssignmentStore, tx txProvider, cache *CacheService, lock *sync.Mutex, validate *validator.Validate, logger *zap.Logger) *LessonPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &LessonPlanService{plans: plans, blocks: blocks, tx: tx, cache: cache, lock: lock, validator: validate, logger: logger}
}

// List returns every plan with its current block, if any.
func (s *LessonPlanService) List(ctx context.Context) ([]dto.LessonPlanResponse, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list lesson plans")
	}
	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load time blocks")
	}
	result := make([]dto.LessonPlanResponse, 0, len(plans))
	for _, plan := range plans {
		result = append(result, lessonPlanResponse(plan, blocks))
	}
	return result, nil
}

// Get returns a single plan.
func (s *LessonPlanService) Get(ctx context.Context, id string) (*dto.LessonPlanResponse, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load time blocks")
	}
	resp := lessonPlanResponse(*plan, blocks)
	return &resp, nil
}

// Create validates and stores a new plan.
func (s *LessonPlanService) Create(ctx context.Context, req dto.LessonPlanRequest) (*models.LessonPlan, error) {
	plan, err := s.buildPlan(req)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, appErrors.Internal(err, "failed to create lesson plan")
	}
	s.cache.Invalidate(ctx, scheduleCachePrefix)
	s.logger.Info("lesson plan created", requestid.Field(ctx), zap.String("lesson_plan_id", plan.ID), zap.String("subject", string(plan.Subject)))
	return plan, nil
}

// Update replaces a plan's content. An assigned plan that grows past its block stays assigned
// and shows up as "over" on the board; only new assignments are blocked on overage.
func (s *LessonPlanService) Update(ctx context.Context, id string, req dto.LessonPlanRequest) (*models.LessonPlan, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.buildPlan(req)
	if err != nil {
		return nil, err
	}
	plan.ID = existing.ID
	plan.CreatedAt = existing.CreatedAt
	if err := s.plans.Update(ctx, plan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return nil, appErrors.Internal(err, "failed to update lesson plan")
	}
	s.cache.Invalidate(ctx, scheduleCachePrefix)
	return plan, nil
}

// Delete removes a plan and clears every block that referenced it in one transaction.
func (s *LessonPlanService) Delete(ctx context.Context, id string) (err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err = s.load(ctx, id); err != nil {
		return err
	}
	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return appErrors.Internal(err, "failed to load time blocks")
	}
	_, released := planner.ReleaseLesson(id, blocks)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Internal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, blockID := range released {
		if err = s.blocks.SetAssignment(ctx, tx, blockID, nil); err != nil {
			err = appErrors.Internal(err, "failed to release time block")
			return err
		}
	}
	if err = s.plans.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
			return err
		}
		err = appErrors.Internal(err, "failed to delete lesson plan")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Internal(err, "failed to commit lesson plan deletion")
		return err
	}

	s.cache.Invalidate(ctx, scheduleCachePrefix)
	s.logger.Info("lesson plan deleted", requestid.Field(ctx), zap.String("lesson_plan_id", id), zap.Strings("released_blocks", released))
	return nil
}

// ReorderActivities moves one activity and persists the renumbered order.
func (s *LessonPlanService) ReorderActivities(ctx context.Context, id string, req dto.ReorderActivitiesRequest) (*models.LessonPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid reorder payload")
	}
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OldIndex >= len(plan.Activities) || req.NewIndex >= len(plan.Activities) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity index out of range")
	}
	plan.Activities = planner.ReorderActivities(plan.Activities, req.OldIndex, req.NewIndex)
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, appErrors.Internal(err, "failed to save activity order")
	}
	s.cache.Invalidate(ctx, scheduleCachePrefix)
	return plan, nil
}

// ActivityPhases groups the plan's activities into intro, main and closing.
func (s *LessonPlanService) ActivityPhases(ctx context.Context, id string) (*dto.ActivityPhasesResponse, error) {
	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ActivityPhasesResponse{
		LessonPlanID: plan.ID,
		Phases:       planner.GroupActivitiesByPhase(plan.Activities),
	}, nil
}

func (s *LessonPlanService) load(ctx context.Context, id string) (*models.LessonPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return nil, appErrors.Internal(err, "failed to load lesson plan")
	}
	return plan, nil
}

func (s *LessonPlanService) buildPlan(req dto.LessonPlanRequest) (*models.LessonPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid lesson plan payload")
	}

	seen := make(map[string]struct{}, len(req.Activities))
	activities := make(models.ActivityList, 0, len(req.Activities))
	for i, in := range req.Activities {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate activity id "+id)
		}
		seen[id] = struct{}{}
		grouping := models.Grouping(in.Grouping)
		if grouping == "" {
			grouping = models.GroupingWholeClass
		}
		activities = append(activities, models.Activity{
			ID:       id,
			Name:     in.Name,
			Duration: in.Duration,
			Phase:    models.Phase(in.Phase),
			Grouping: grouping,
			Order:    i,
		})
	}

	objectives := make(models.ObjectiveList, 0, len(req.Objectives))
	for _, in := range req.Objectives {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		objectives = append(objectives, models.Objective{ID: id, Description: in.Description})
	}

	materials := make(models.MaterialList, 0, len(req.Materials))
	for _, in := range req.Materials {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		materials = append(materials, models.Material{ID: id, Name: in.Name, Quantity: in.Quantity})
	}

	return &models.LessonPlan{
		Name:       req.Name,
		Subject:    models.Subject(req.Subject),
		Duration:   req.Duration,
		Activities: activities,
		Objectives: objectives,
		Materials:  materials,
	}, nil
}

func lessonPlanResponse(plan models.LessonPlan, blocks []models.TimeBlock) dto.LessonPlanResponse {
	resp := dto.LessonPlanResponse{LessonPlan: plan, PlannedDuration: planner.PlannedDuration(plan)}
	if block, ok := planner.BlockForLesson(plan.ID, blocks); ok {
		id := block.ID
		resp.BlockID = &id
	}
	return resp
}
