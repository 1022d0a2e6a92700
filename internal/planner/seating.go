package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

// noSeatedRival scores a seat for a student whose rivals are not yet seated.
const noSeatedRival = math.MaxInt

// RivalPair reports two rivals sitting in orthogonally adjacent seats.
type RivalPair struct {
	StudentID string `json:"studentId"`
	RivalID   string `json:"rivalId"`
	SeatID    string `json:"seatId"`
	RivalSeat string `json:"rivalSeatId"`
}

// NewSeatGrid builds an empty rows x cols grid in row-major order.
func NewSeatGrid(rows, cols int) []models.SeatPosition {
	if rows <= 0 || cols <= 0 {
		return []models.SeatPosition{}
	}
	seats := make([]models.SeatPosition, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			seats = append(seats, models.SeatPosition{ID: fmt.Sprintf("seat-%d-%d", r, c), Row: r, Col: c})
		}
	}
	return seats
}

// ClearSeats returns the grid with every seat emptied.
func ClearSeats(seats []models.SeatPosition) []models.SeatPosition {
	out := make([]models.SeatPosition, len(seats))
	copy(out, seats)
	for i := range out {
		out[i].StudentID = nil
	}
	return out
}

// SwapSeats exchanges the occupants of two seats. Either seat may be empty.
// Rival adjacency is not checked; unknown ids leave the grid as it was.
func SwapSeats(seats []models.SeatPosition, seatA, seatB string) []models.SeatPosition {
	out := cloneSeats(seats)
	a, b := indexOfSeat(out, seatA), indexOfSeat(out, seatB)
	if a < 0 || b < 0 || a == b {
		return out
	}
	out[a].StudentID, out[b].StudentID = out[b].StudentID, out[a].StudentID
	return out
}

// AutoArrange seats every unplaced student in roster order. Each student takes the empty
// seat farthest (Manhattan) from their nearest seated rival; ties go to the first seat in
// row-major scan order. Students already on the grid keep their seats. When seats run
// out the remaining students stay unseated.
func AutoArrange(seats []models.SeatPosition, students []models.Student) []models.SeatPosition {
	out := cloneSeats(seats)
	order := scanOrder(out)

	placed := make(map[string]int, len(out))
	for i := range out {
		if out[i].Occupied() {
			placed[*out[i].StudentID] = i
		}
	}

	for _, student := range students {
		if student.ID == "" {
			continue
		}
		if _, ok := placed[student.ID]; ok {
			continue
		}

		best, bestScore := -1, -1
		for _, idx := range order {
			if out[idx].Occupied() {
				continue
			}
			score := rivalDistance(out[idx], student.RivalIDs, out, placed)
			if score > bestScore {
				best, bestScore = idx, score
			}
		}
		if best < 0 {
			break
		}

		id := student.ID
		out[best].StudentID = &id
		placed[id] = best
	}
	return out
}

// RivalAdjacency lists rivals seated next to each other. Each unordered pair is reported once.
func RivalAdjacency(seats []models.SeatPosition, students []models.Student) []RivalPair {
	located := make(map[string]models.SeatPosition, len(seats))
	for _, seat := range seats {
		if seat.Occupied() {
			located[*seat.StudentID] = seat
		}
	}

	seen := make(map[[2]string]struct{})
	pairs := []RivalPair{}
	for _, student := range students {
		seat, ok := located[student.ID]
		if !ok {
			continue
		}
		for _, rivalID := range student.RivalIDs {
			rivalSeat, ok := located[rivalID]
			if !ok || manhattan(seat, rivalSeat) != 1 {
				continue
			}
			key := [2]string{student.ID, rivalID}
			if rivalID < student.ID {
				key = [2]string{rivalID, student.ID}
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, RivalPair{StudentID: student.ID, RivalID: rivalID, SeatID: seat.ID, RivalSeat: rivalSeat.ID})
		}
	}
	return pairs
}

// Unseated returns the ids of roster students without a seat, in roster order.
func Unseated(seats []models.SeatPosition, students []models.Student) []string {
	seated := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if seat.Occupied() {
			seated[*seat.StudentID] = struct{}{}
		}
	}
	missing := []string{}
	for _, student := range students {
		if _, ok := seated[student.ID]; !ok {
			missing = append(missing, student.ID)
		}
	}
	return missing
}

func rivalDistance(seat models.SeatPosition, rivals []string, seats []models.SeatPosition, placed map[string]int) int {
	best := noSeatedRival
	for _, rivalID := range rivals {
		idx, ok := placed[rivalID]
		if !ok {
			continue
		}
		if d := manhattan(seat, seats[idx]); d < best {
			best = d
		}
	}
	return best
}

func manhattan(a, b models.SeatPosition) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// scanOrder returns seat indices sorted by (row, col) without reordering the grid itself.
func scanOrder(seats []models.SeatPosition) []int {
	order := make([]int, len(seats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := seats[order[i]], seats[order[j]]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return order
}

func indexOfSeat(seats []models.SeatPosition, seatID string) int {
	if seatID == "" {
		return -1
	}
	for i := range seats {
		if seats[i].ID == seatID {
			return i
		}
	}
	return -1
}

func cloneSeats(seats []models.SeatPosition) []models.SeatPosition {
	out := make([]models.SeatPosition, len(seats))
	copy(out, seats)
	for i := range out {
		if out[i].StudentID != nil {
			id := *out[i].StudentID
			out[i].StudentID = &id
		}
	}
	return out
}
