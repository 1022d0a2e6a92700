package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
)

type seatRepoStub struct {
	seats    []models.SeatPosition
	replaced int
	updated  int
}

func (s *seatRepoStub) List(ctx context.Context) ([]models.SeatPosition, error) {
	out := make([]models.SeatPosition, len(s.seats))
	copy(out, s.seats)
	return out, nil
}

func (s *seatRepoStub) ReplaceGrid(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatPosition) error {
	s.replaced++
	s.seats = append([]models.SeatPosition(nil), seats...)
	return nil
}

func (s *seatRepoStub) UpdateOccupants(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatPosition) error {
	s.updated++
	s.seats = append([]models.SeatPosition(nil), seats...)
	return nil
}

type rosterStub struct {
	students []models.Student
}

func (r *rosterStub) List(ctx context.Context) ([]models.Student, error) {
	return r.students, nil
}

func rivalsRoster() *rosterStub {
	return &rosterStub{students: []models.Student{
		{ID: "ana", Name: "Ana", RivalIDs: pq.StringArray{"ben"}},
		{ID: "ben", Name: "Ben", RivalIDs: pq.StringArray{"ana"}},
		{ID: "cal", Name: "Cal"},
	}}
}

func newSeatingServiceForTest(t *testing.T, seats *seatRepoStub, roster *rosterStub, cfg SeatingConfig) (*SeatingService, sqlmock.Sqlmock, *MetricsService) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	metrics := NewMetricsService()
	return NewSeatingService(seats, roster, tx, nil, metrics, nil, nil, cfg), mock, metrics
}

func occupant(chart *dto.SeatingChart, seatID string) string {
	for _, seat := range chart.Seats {
		if seat.ID == seatID && seat.Occupied() {
			return *seat.StudentID
		}
	}
	return ""
}

func TestSeatingServiceChartCreatesDefaultGrid(t *testing.T) {
	seats := &seatRepoStub{}
	svc, mock, _ := newSeatingServiceForTest(t, seats, &rosterStub{}, SeatingConfig{Rows: 2, Cols: 3})
	mock.ExpectBegin()
	mock.ExpectCommit()

	chart, hit, err := svc.Chart(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, chart.Rows)
	assert.Equal(t, 3, chart.Cols)
	assert.Len(t, chart.Seats, 6)
	assert.Equal(t, 1, seats.replaced)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingServiceAutoArrangeSeparatesRivals(t *testing.T) {
	seats := &seatRepoStub{seats: planner.NewSeatGrid(2, 2)}
	svc, mock, metrics := newSeatingServiceForTest(t, seats, rivalsRoster(), SeatingConfig{})
	mock.ExpectBegin()
	mock.ExpectCommit()

	chart, err := svc.AutoArrange(context.Background(), dto.AutoArrangeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ana", occupant(chart, "seat-0-0"))
	assert.Equal(t, "cal", occupant(chart, "seat-0-1"))
	assert.Equal(t, "ben", occupant(chart, "seat-1-1"))
	assert.Empty(t, chart.Unseated)
	assert.Empty(t, chart.Conflicts)
	assert.Equal(t, uint64(1), metrics.Snapshot().SeatingRuns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingServiceAutoArrangeReportsOverflow(t *testing.T) {
	seats := &seatRepoStub{seats: planner.NewSeatGrid(1, 2)}
	svc, mock, _ := newSeatingServiceForTest(t, seats, rivalsRoster(), SeatingConfig{})
	mock.ExpectBegin()
	mock.ExpectCommit()

	chart, err := svc.AutoArrange(context.Background(), dto.AutoArrangeRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cal"}, chart.Unseated)
}

func TestSeatingServiceAutoArrangeKeepExisting(t *testing.T) {
	grid := planner.NewSeatGrid(2, 2)
	grid[3].StudentID = strPtr("cal")
	seats := &seatRepoStub{seats: grid}
	svc, mock, _ := newSeatingServiceForTest(t, seats, rivalsRoster(), SeatingConfig{})
	mock.ExpectBegin()
	mock.ExpectCommit()

	chart, err := svc.AutoArrange(context.Background(), dto.AutoArrangeRequest{KeepExisting: true})
	require.NoError(t, err)
	assert.Equal(t, "cal", occupant(chart, "seat-1-1"))
	assert.Equal(t, "ana", occupant(chart, "seat-0-0"))
	assert.Equal(t, "ben", occupant(chart, "seat-0-1"), "ties go to the first seat in scan order")
}

func TestSeatingServiceSwapReportsConflicts(t *testing.T) {
	grid := planner.NewSeatGrid(2, 2)
	grid[0].StudentID = strPtr("ana")
	grid[1].StudentID = strPtr("cal")
	grid[3].StudentID = strPtr("ben")
	seats := &seatRepoStub{seats: grid}
	svc, mock, _ := newSeatingServiceForTest(t, seats, rivalsRoster(), SeatingConfig{})
	mock.ExpectBegin()
	mock.ExpectCommit()

	chart, err := svc.Swap(context.Background(), dto.SwapSeatsRequest{SeatA: "seat-0-1", SeatB: "seat-1-1"})
	require.NoError(t, err)
	assert.Equal(t, "ben", occupant(chart, "seat-0-1"))
	require.Len(t, chart.Conflicts, 1)
	assert.Equal(t, "ana", chart.Conflicts[0].StudentID)
	assert.Equal(t, "ben", chart.Conflicts[0].RivalID)

	_, err = svc.Swap(context.Background(), dto.SwapSeatsRequest{SeatA: "seat-0-1", SeatB: "seat-9-9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Swap(context.Background(), dto.SwapSeatsRequest{SeatA: "seat-0-1", SeatB: "seat-0-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSeatingServiceClear(t *testing.T) {
	grid := planner.NewSeatGrid(1, 2)
	grid[0].StudentID = strPtr("ana")
	seats := &seatRepoStub{seats: grid}
	svc, mock, _ := newSeatingServiceForTest(t, seats, rivalsRoster(), SeatingConfig{})
	mock.ExpectBegin()
	mock.ExpectCommit()

	chart, err := svc.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "ben", "cal"}, chart.Unseated)
	assert.Equal(t, 1, seats.updated)
}

func TestSeatingServiceInitGridValidates(t *testing.T) {
	svc, _, _ := newSeatingServiceForTest(t, &seatRepoStub{}, &rosterStub{}, SeatingConfig{})

	_, err := svc.InitGrid(context.Background(), dto.SeatGridRequest{Rows: 0, Cols: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
