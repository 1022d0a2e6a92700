package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

var lessonPlanRowColumns = []string{"id", "name", "subject", "duration", "activities", "objectives", "materials", "created_at", "updated_at"}

func TestLessonPlanRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	rows := sqlmock.NewRows(lessonPlanRowColumns).
		AddRow("plan-1", "Fractions", "math", 45,
			[]byte(`[{"id":"a1","name":"Warm up","duration":5,"phase":"intro","grouping":"whole-class","order":0}]`),
			[]byte(`[{"id":"o1","description":"Compare fractions"}]`),
			nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, subject, duration, activities, objectives, materials, created_at, updated_at FROM lesson_plans ORDER BY created_at ASC, id ASC")).
		WillReturnRows(rows)

	plans, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, models.SubjectMath, plans[0].Subject)
	require.Len(t, plans[0].Activities, 1)
	assert.Equal(t, models.PhaseIntro, plans[0].Activities[0].Phase)
	assert.Equal(t, "Compare fractions", plans[0].Objectives[0].Description)
	assert.Empty(t, plans[0].Materials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_plans WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	plan, err := repo.FindByID(context.Background(), "missing")
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_plans")).
		WithArgs(sqlmock.AnyArg(), "Fractions", "math", 45, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	plan := &models.LessonPlan{Name: "Fractions", Subject: models.SubjectMath, Duration: 45}
	require.NoError(t, repo.Create(context.Background(), plan))
	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson_plans SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.LessonPlan{ID: "ghost", Name: "x", Subject: models.SubjectArt, Duration: 10})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryDeleteInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lesson_plans WHERE id = $1")).
		WithArgs("plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), tx, "plan-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
