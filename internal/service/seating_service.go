package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/middleware/requestid"
)

type seatRepository interface {
	List(ctx context.Context) ([]models.SeatPosition, error)
	ReplaceGrid(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatPosition) error
	UpdateOccupants(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatPosition) error
}

type rosterReader interface {
	List(ctx context.Context) ([]models.Student, error)
}

// SeatingConfig holds the grid created on first use.
type SeatingConfig struct {
	Rows     int
	Cols     int
	CacheTTL time.Duration
}

// SeatingService persists the seating chart and runs the auto-arranger over it.
type SeatingService struct {
	seats     seatRepository
	students  rosterReader
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SeatingConfig
	mu        sync.Mutex
}

// NewSeatingService constructs a SeatingService.
func NewSeatingService(seats seatRepository, students rosterReader, tx txProvider, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SeatingConfig) *SeatingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 5
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 6
	}
	return &SeatingService{seats: seats, students: students, tx: tx, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// Chart returns the current seating chart, creating the default grid on first use.
// The bool reports whether the chart came from cache.
func (s *SeatingService) Chart(ctx context.Context) (*dto.SeatingChart, bool, error) {
	gen := s.cache.Generation(seatingCachePrefix)
	var cached dto.SeatingChart
	if s.cache.Get(ctx, seatingChartKey, &cached) {
		return &cached, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seats, err := s.loadGrid(ctx)
	if err != nil {
		return nil, false, err
	}
	students, err := s.roster(ctx)
	if err != nil {
		return nil, false, err
	}
	chart := buildChart(seats, students)
	s.cache.SetIfCurrent(ctx, seatingCachePrefix, gen, seatingChartKey, chart, s.cfg.CacheTTL)
	return chart, false, nil
}

// InitGrid replaces the chart with an empty rows x cols grid.
func (s *SeatingService) InitGrid(ctx context.Context, req dto.SeatGridRequest) (*dto.SeatingChart, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid seat grid payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seats := planner.NewSeatGrid(req.Rows, req.Cols)
	if err := s.replaceGrid(ctx, seats); err != nil {
		return nil, err
	}
	students, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("seat grid rebuilt", requestid.Field(ctx), zap.Int("rows", req.Rows), zap.Int("cols", req.Cols))
	return buildChart(seats, students), nil
}

// AutoArrange seats the roster. Without keepExisting the grid is cleared first and fully recomputed.
func (s *SeatingService) AutoArrange(ctx context.Context, req dto.AutoArrangeRequest) (*dto.SeatingChart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seats, err := s.loadGrid(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}

	base := seats
	if !req.KeepExisting {
		base = planner.ClearSeats(seats)
	}
	arranged := planner.AutoArrange(base, students)
	if err := s.saveOccupants(ctx, arranged); err != nil {
		return nil, err
	}

	chart := buildChart(arranged, students)
	filled := len(students) - len(chart.Unseated)
	s.metrics.RecordSeatingRun(filled)
	if len(chart.Unseated) > 0 {
		s.logger.Warn("not enough seats for roster", requestid.Field(ctx), zap.Int("seats", len(arranged)), zap.Strings("unseated", chart.Unseated))
	}
	s.logger.Info("seating arranged", requestid.Field(ctx), zap.Bool("keep_existing", req.KeepExisting), zap.Int("seated", filled))
	return chart, nil
}

// Clear empties every seat.
func (s *SeatingService) Clear(ctx context.Context) (*dto.SeatingChart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seats, err := s.loadGrid(ctx)
	if err != nil {
		return nil, err
	}
	cleared := planner.ClearSeats(seats)
	if err := s.saveOccupants(ctx, cleared); err != nil {
		return nil, err
	}
	s.metrics.RecordSeatsFilled(0)
	students, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	return buildChart(cleared, students), nil
}

// Swap exchanges two seats' occupants. Rival adjacency is reported in the chart, not enforced.
func (s *SeatingService) Swap(ctx context.Context, req dto.SwapSeatsRequest) (*dto.SeatingChart, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid seat swap payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seats, err := s.loadGrid(ctx)
	if err != nil {
		return nil, err
	}
	if !hasSeat(seats, req.SeatA) || !hasSeat(seats, req.SeatB) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "seat not found")
	}
	swapped := planner.SwapSeats(seats, req.SeatA, req.SeatB)
	if err := s.saveOccupants(ctx, swapped); err != nil {
		return nil, err
	}
	students, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	chart := buildChart(swapped, students)
	if len(chart.Conflicts) > 0 {
		s.logger.Info("swap seated rivals together", requestid.Field(ctx), zap.Int("pairs", len(chart.Conflicts)))
	}
	return chart, nil
}

func (s *SeatingService) loadGrid(ctx context.Context) ([]models.SeatPosition, error) {
	seats, err := s.seats.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load seats")
	}
	if len(seats) > 0 {
		return seats, nil
	}
	seats = planner.NewSeatGrid(s.cfg.Rows, s.cfg.Cols)
	if err := s.replaceGrid(ctx, seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (s *SeatingService) roster(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}
	return students, nil
}

func (s *SeatingService) replaceGrid(ctx context.Context, seats []models.SeatPosition) error {
	return s.inTx(ctx, "failed to replace seat grid", func(tx *sqlx.Tx) error {
		return s.seats.ReplaceGrid(ctx, tx, seats)
	})
}

func (s *SeatingService) saveOccupants(ctx context.Context, seats []models.SeatPosition) error {
	return s.inTx(ctx, "failed to save seating", func(tx *sqlx.Tx) error {
		return s.seats.UpdateOccupants(ctx, tx, seats)
	})
}

func (s *SeatingService) inTx(ctx context.Context, message string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Internal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		err = appErrors.Internal(err, message)
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Internal(err, message)
		return err
	}
	s.cache.Invalidate(ctx, seatingCachePrefix)
	return nil
}

func buildChart(seats []models.SeatPosition, students []models.Student) *dto.SeatingChart {
	chart := &dto.SeatingChart{
		Seats:     seats,
		Unseated:  planner.Unseated(seats, students),
		Conflicts: planner.RivalAdjacency(seats, students),
	}
	for _, seat := range seats {
		if seat.Row+1 > chart.Rows {
			chart.Rows = seat.Row + 1
		}
		if seat.Col+1 > chart.Cols {
			chart.Cols = seat.Col + 1
		}
	}
	return chart
}

func hasSeat(seats []models.SeatPosition, id string) bool {
	for _, seat := range seats {
		if seat.ID == id {
			return true
		}
	}
	return false
}
