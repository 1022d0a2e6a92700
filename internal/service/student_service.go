package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
}

// StudentService maintains the simulated roster consumed by seating.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the roster in seating order.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Upsert creates or replaces the student with the given id.
func (s *StudentService) Upsert(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid student payload")
	}
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	rivals := uniqueIDs(req.RivalIDs)
	friends := uniqueIDs(req.FriendIDs)
	for _, other := range append(append([]string{}, rivals...), friends...) {
		if other == id {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a student cannot list themselves as rival or friend")
		}
	}
	mood := models.Mood(req.Mood)
	if mood == "" {
		mood = models.MoodNeutral
	}

	student := &models.Student{
		ID:        id,
		Name:      req.Name,
		Mood:      mood,
		Academic:  req.Academic,
		Behavior:  req.Behavior,
		RivalIDs:  pq.StringArray(rivals),
		FriendIDs: pq.StringArray(friends),
	}
	if existing, err := s.repo.FindByID(ctx, id); err == nil {
		student.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load student")
	}

	if err := s.repo.Upsert(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to save student")
	}
	s.cache.Invalidate(ctx, seatingCachePrefix)
	return student, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
