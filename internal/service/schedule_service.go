package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/middleware/requestid"
)

const pqUniqueViolation = "23505"

type timeBlockRepository interface {
	List(ctx context.Context) ([]models.TimeBlock, error)
	Count(ctx context.Context) (int, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.TimeBlock) error
	SetAssignment(ctx context.Context, exec sqlx.ExtContext, blockID string, planID *string) error
}

type lessonPlanReader interface {
	List(ctx context.Context) ([]models.LessonPlan, error)
	FindByID(ctx context.Context, id string) (*models.LessonPlan, error)
}

// ScheduleConfig configures the weekly template and board caching.
type ScheduleConfig struct {
	Periods  []planner.Period
	CacheTTL time.Duration
}

// ScheduleService applies the assignment registry rules to the persisted week.
// Read-modify-write cycles run under lock so two requests never assign from the same snapshot.
type ScheduleService struct {
	blocks    timeBlockRepository
	plans     lessonPlanReader
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	lock      *sync.Mutex
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleConfig
	loads     singleflight.Group
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(blocks timeBlockRepository, plans lessonPlanReader, tx txProvider, cache *CacheService, metrics *MetricsService, lock *sync.Mutex, validate *validator.Validate, logger *zap.Logger, cfg ScheduleConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &ScheduleService{
		blocks:    blocks,
		plans:     plans,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		lock:      lock,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Board returns the week ordered by day and start time together with the unscheduled plans.
// The bool reports whether the board came from cache.
func (s *ScheduleService) Board(ctx context.Context) (*dto.ScheduleBoard, bool, error) {
	gen := s.cache.Generation(scheduleCachePrefix)
	var cached dto.ScheduleBoard
	if s.cache.Get(ctx, scheduleBoardKey, &cached) {
		return &cached, true, nil
	}

	// Callers arriving after an invalidation start their own rebuild instead of joining an older one.
	flight := scheduleBoardKey + "@" + strconv.FormatUint(gen, 10)
	built, err, _ := s.loads.Do(flight, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		blocks, plans, err := s.snapshot(loadCtx)
		if err != nil {
			return nil, err
		}
		board := buildBoard(blocks, plans)
		s.cache.SetIfCurrent(loadCtx, scheduleCachePrefix, gen, scheduleBoardKey, board, s.cfg.CacheTTL)
		return board, nil
	})
	if err != nil {
		return nil, false, err
	}
	return built.(*dto.ScheduleBoard), false, nil
}

// Unassigned lists plans that no block holds, in plan creation order.
func (s *ScheduleService) Unassigned(ctx context.Context) ([]dto.BoardLesson, error) {
	blocks, plans, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return boardLessons(planner.GetUnassignedLessons(plans, blocks)), nil
}

// ValidateFit checks a plan against a block without assigning it.
func (s *ScheduleService) ValidateFit(ctx context.Context, req dto.AssignmentRequest) (*dto.FitCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid fit check payload")
	}
	plan, err := s.loadPlan(ctx, req.LessonPlanID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load time blocks")
	}
	block, ok := findBlock(blocks, req.BlockID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
	}
	return &dto.FitCheckResponse{
		LessonPlanID: plan.ID,
		BlockID:      block.ID,
		Fit:          planner.ValidateFit(*plan, block.Duration),
	}, nil
}

// Assign places a lesson plan into a block. Moving a plan requires an explicit Unassign first.
func (s *ScheduleService) Assign(ctx context.Context, req dto.AssignmentRequest) (*dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid assignment payload")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	plan, err := s.loadPlan(ctx, req.LessonPlanID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load time blocks")
	}

	result := planner.AssignLessonToBlock(*plan, req.BlockID, blocks)
	if !result.Success {
		s.metrics.RecordAssignment(string(result.Reason))
		s.logger.Info("assignment rejected", requestid.Field(ctx),
			zap.String("lesson_plan_id", plan.ID),
			zap.String("block_id", req.BlockID),
			zap.String("reason", string(result.Reason)))
		return nil, assignmentError(result)
	}

	previous, _ := findBlock(blocks, req.BlockID)
	if !previous.Holds(plan.ID) {
		planID := plan.ID
		if err := s.blocks.SetAssignment(ctx, nil, req.BlockID, &planID); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
				s.metrics.RecordAssignment(string(planner.ReasonAlreadyAssignedElsewhere))
				return nil, appErrors.Clone(appErrors.ErrAlreadyAssignedElsewhere, "lesson plan is already assigned to another block; unassign it first")
			}
			return nil, appErrors.Internal(err, "failed to save assignment")
		}
		s.cache.Invalidate(ctx, scheduleCachePrefix)
	}
	s.metrics.RecordAssignment("")

	updated, _ := findBlock(result.UpdatedBlocks, req.BlockID)
	s.logger.Info("lesson assigned", requestid.Field(ctx),
		zap.String("lesson_plan_id", plan.ID),
		zap.String("block_id", updated.ID),
		zap.String("fit", string(result.Fit.Status)))
	return &dto.AssignmentResponse{
		Block: boardBlock(updated, plan),
		Fit:   *result.Fit,
	}, nil
}

// Unassign clears a block. Clearing an empty block succeeds without writing.
func (s *ScheduleService) Unassign(ctx context.Context, blockID string) (*dto.BoardBlock, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load time blocks")
	}
	current, ok := findBlock(blocks, blockID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
	}

	updated := planner.UnassignLessonFromBlock(blockID, blocks)
	if current.Assigned() {
		if err := s.blocks.SetAssignment(ctx, nil, blockID, nil); err != nil {
			return nil, appErrors.Internal(err, "failed to clear assignment")
		}
		s.cache.Invalidate(ctx, scheduleCachePrefix)
		s.logger.Info("lesson unassigned", requestid.Field(ctx), zap.String("block_id", blockID), zap.String("lesson_plan_id", *current.LessonPlanID))
	}
	cleared, _ := findBlock(updated, blockID)
	block := boardBlock(cleared, nil)
	return &block, nil
}

// SeedWeek creates the default weekly template. It refuses to run when blocks already exist.
func (s *ScheduleService) SeedWeek(ctx context.Context) (blocks []models.TimeBlock, err error) {
	if len(s.cfg.Periods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no default periods configured")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	count, err := s.blocks.Count(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count time blocks")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "schedule already has time blocks")
	}

	blocks = planner.BuildWeek(s.cfg.Periods)
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.blocks.BulkCreate(ctx, tx, blocks); err != nil {
		err = appErrors.Internal(err, "failed to create time blocks")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Internal(err, "failed to commit time blocks")
		return nil, err
	}

	s.cache.Invalidate(ctx, scheduleCachePrefix)
	s.logger.Info("weekly template seeded", requestid.Field(ctx), zap.Int("blocks", len(blocks)))
	return planner.SortBlocks(blocks), nil
}

// CreateBlock adds one empty block to the week.
func (s *ScheduleService) CreateBlock(ctx context.Context, req dto.CreateTimeBlockRequest) (*models.TimeBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid time block payload")
	}
	minutes, err := planner.ParseStartTime(req.StartTime)
	if err != nil {
		return nil, appErrors.Invalid(err, "startTime must look like 8:00 AM")
	}
	block := models.TimeBlock{
		DayOfWeek: req.DayOfWeek,
		StartTime: planner.FormatStartTime(minutes),
		Duration:  req.Duration,
	}
	created := []models.TimeBlock{block}
	if err := s.blocks.BulkCreate(ctx, nil, created); err != nil {
		return nil, appErrors.Internal(err, "failed to create time block")
	}
	s.cache.Invalidate(ctx, scheduleCachePrefix)
	return &created[0], nil
}

func (s *ScheduleService) snapshot(ctx context.Context) ([]models.TimeBlock, []models.LessonPlan, error) {
	blocks, err := s.blocks.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load time blocks")
	}
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load lesson plans")
	}
	return blocks, plans, nil
}

func (s *ScheduleService) loadPlan(ctx context.Context, id string) (*models.LessonPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson plan not found")
		}
		return nil, appErrors.Internal(err, "failed to load lesson plan")
	}
	return plan, nil
}

func assignmentError(result planner.AssignResult) error {
	switch result.Reason {
	case planner.ReasonAlreadyAssignedElsewhere:
		return appErrors.Clone(appErrors.ErrAlreadyAssignedElsewhere, result.Error)
	case planner.ReasonBlockOccupied:
		return appErrors.Clone(appErrors.ErrBlockOccupied, result.Error)
	case planner.ReasonDurationExceedsBlock:
		err := appErrors.WithDetails(appErrors.ErrDurationExceedsBlock, map[string]any{"fit": result.Fit})
		err.Message = result.Error
		return err
	default:
		return appErrors.Clone(appErrors.ErrNotFound, result.Error)
	}
}

func buildBoard(blocks []models.TimeBlock, plans []models.LessonPlan) *dto.ScheduleBoard {
	sorted := planner.SortBlocks(blocks)
	board := &dto.ScheduleBoard{
		Blocks:     make([]dto.BoardBlock, 0, len(sorted)),
		Unassigned: boardLessons(planner.GetUnassignedLessons(plans, blocks)),
	}
	for _, block := range sorted {
		board.Blocks = append(board.Blocks, boardBlock(block, planner.GetAssignedLesson(block.ID, sorted, plans)))
	}
	return board
}

func boardBlock(block models.TimeBlock, plan *models.LessonPlan) dto.BoardBlock {
	out := dto.BoardBlock{TimeBlock: block, Day: block.DayName()}
	if minutes, err := planner.ParseStartTime(block.StartTime); err == nil {
		out.StartMinutes = minutes
	}
	if plan != nil {
		lesson := boardLesson(*plan)
		fit := planner.ValidateFit(*plan, block.Duration)
		out.Lesson = &lesson
		out.Fit = &fit
	}
	return out
}

func boardLesson(plan models.LessonPlan) dto.BoardLesson {
	return dto.BoardLesson{ID: plan.ID, Name: plan.Name, Subject: plan.Subject, Duration: planner.PlannedDuration(plan)}
}

func boardLessons(plans []models.LessonPlan) []dto.BoardLesson {
	out := make([]dto.BoardLesson, 0, len(plans))
	for _, plan := range plans {
		out = append(out, boardLesson(plan))
	}
	return out
}

func findBlock(blocks []models.TimeBlock, id string) (models.TimeBlock, bool) {
	for _, block := range blocks {
		if block.ID == id {
			return block, true
		}
	}
	return models.TimeBlock{}, false
}
