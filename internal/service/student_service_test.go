package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
)

type studentRepoStub struct {
	students map[string]models.Student
	saved    []models.Student
}

func (s *studentRepoStub) List(ctx context.Context) ([]models.Student, error) {
	out := make([]models.Student, 0, len(s.students))
	for _, student := range s.students {
		out = append(out, student)
	}
	return out, nil
}

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (s *studentRepoStub) Upsert(ctx context.Context, student *models.Student) error {
	s.saved = append(s.saved, *student)
	s.students[student.ID] = *student
	return nil
}

func TestStudentServiceUpsertNormalizesRelations(t *testing.T) {
	repo := &studentRepoStub{students: map[string]models.Student{}}
	cacheRepo := newMemoryCacheRepo()
	require.NoError(t, cacheRepo.Set(context.Background(), seatingChartKey, dto.SeatingChart{}, 0))
	svc := NewStudentService(repo, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil)

	student, err := svc.Upsert(context.Background(), "ana", dto.StudentRequest{
		Name:      "Ana",
		Academic:  80,
		Behavior:  70,
		RivalIDs:  []string{"ben", "ben", "cal"},
		FriendIDs: []string{"dee"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MoodNeutral, student.Mood)
	assert.Equal(t, []string{"ben", "cal"}, []string(student.RivalIDs))
	assert.Len(t, repo.saved, 1)
	assert.False(t, cacheRepo.has(seatingChartKey))
}

func TestStudentServiceUpsertKeepsCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := &studentRepoStub{students: map[string]models.Student{"ana": {ID: "ana", Name: "Ana", CreatedAt: created}}}
	svc := NewStudentService(repo, nil, nil, nil)

	student, err := svc.Upsert(context.Background(), "ana", dto.StudentRequest{Name: "Ana B", Mood: "happy"})
	require.NoError(t, err)
	assert.Equal(t, created, student.CreatedAt)
	assert.Equal(t, models.MoodHappy, student.Mood)
}

func TestStudentServiceUpsertRejectsSelfReference(t *testing.T) {
	svc := NewStudentService(&studentRepoStub{students: map[string]models.Student{}}, nil, nil, nil)

	_, err := svc.Upsert(context.Background(), "ana", dto.StudentRequest{Name: "Ana", RivalIDs: []string{"ana"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Upsert(context.Background(), "ana", dto.StudentRequest{Name: "Ana", Mood: "sleepy"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(&studentRepoStub{students: map[string]models.Student{}}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
