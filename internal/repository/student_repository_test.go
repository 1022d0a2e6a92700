package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "mood", "academic", "behavior", "rival_ids", "friend_ids", "created_at", "updated_at"}).
		AddRow("s1", "Ada", "happy", 80, 70, []byte("{s2,s3}"), []byte("{}"), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students ORDER BY created_at ASC, id ASC")).
		WillReturnRows(rows)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, pq.StringArray{"s2", "s3"}, students[0].RivalIDs)
	assert.Empty(t, students[0].FriendIDs)
	assert.Equal(t, models.MoodHappy, students[0].Mood)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("s1", "Ada", "bored", 60, 40, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{ID: "s1", Name: "Ada", Mood: models.MoodBored, Academic: 60, Behavior: 40, RivalIDs: pq.StringArray{"s2"}}
	require.NoError(t, repo.Upsert(context.Background(), student))
	assert.False(t, student.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
