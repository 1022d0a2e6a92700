package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

// SeatRepository persists the classroom seating grid.
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository constructs a SeatRepository.
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

func (r *SeatRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns the grid in row-major order.
func (r *SeatRepository) List(ctx context.Context) ([]models.SeatPosition, error) {
	const query = `SELECT id, row_index, col_index, student_id FROM seats ORDER BY row_index ASC, col_index ASC`
	var seats []models.SeatPosition
	if err := r.db.SelectContext(ctx, &seats, query); err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return seats, nil
}

// ReplaceGrid drops the current grid and stores seats in its place.
func (r *SeatRepository) ReplaceGrid(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatPosition) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM seats`); err != nil {
		return fmt.Errorf("clear seat grid: %w", err)
	}
	const query = `INSERT INTO seats (id, row_index, col_index, student_id) VALUES (:id, :row_index, :col_index, :student_id)`
	for i := range seats {
		if _, err := sqlx.NamedExecContext(ctx, target, query, &seats[i]); err != nil {
			return fmt.Errorf("create seat %s: %w", seats[i].ID, err)
		}
	}
	return nil
}

// UpdateOccupants writes every seat's student. Seats are emptied first so the unique
// student index never sees a transient duplicate while students move.
func (r *SeatRepository) UpdateOccupants(ctx context.Context, exec sqlx.ExtContext, seats []models.SeatPosition) error {
	if len(seats) == 0 {
		return nil
	}
	target := r.exec(exec)
	ids := make([]string, 0, len(seats))
	for _, seat := range seats {
		ids = append(ids, seat.ID)
	}
	if _, err := target.ExecContext(ctx, `UPDATE seats SET student_id = NULL WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("reset seat occupants: %w", err)
	}
	for _, seat := range seats {
		if !seat.Occupied() {
			continue
		}
		if _, err := target.ExecContext(ctx, `UPDATE seats SET student_id = $2 WHERE id = $1`, seat.ID, *seat.StudentID); err != nil {
			return fmt.Errorf("seat student %s: %w", *seat.StudentID, err)
		}
	}
	return nil
}
