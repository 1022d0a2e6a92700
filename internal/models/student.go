package models

import (
	"time"

	"github.com/lib/pq"
)

// Mood is the simulated student's current mood.
type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodNeutral    Mood = "neutral"
	MoodBored      Mood = "bored"
	MoodFrustrated Mood = "frustrated"
	MoodExcited    Mood = "excited"
)

// Student is a simulated roster entry. Rival and friend relations are advisory and not forced symmetric.
type Student struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Mood      Mood           `db:"mood" json:"mood"`
	Academic  int            `db:"academic" json:"academic"`
	Behavior  int            `db:"behavior" json:"behavior"`
	RivalIDs  pq.StringArray `db:"rival_ids" json:"rivalIds"`
	FriendIDs pq.StringArray `db:"friend_ids" json:"friendIds"`
	CreatedAt time.Time      `db:"created_at" json:"-"`
	UpdatedAt time.Time      `db:"updated_at" json:"-"`
}

// SeatPosition is one seat of the classroom grid.
type SeatPosition struct {
	ID        string  `db:"id" json:"id"`
	Row       int     `db:"row_index" json:"row"`
	Col       int     `db:"col_index" json:"col"`
	StudentID *string `db:"student_id" json:"studentId"`
}

// Occupied reports whether a student sits in the seat.
func (s SeatPosition) Occupied() bool {
	return s.StudentID != nil && *s.StudentID != ""
}
