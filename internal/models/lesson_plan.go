package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Subject is the closed set of subjects a lesson plan can cover.
type Subject string

const (
	SubjectMath          Subject = "math"
	SubjectReading       Subject = "reading"
	SubjectScience       Subject = "science"
	SubjectSocialStudies Subject = "social-studies"
	SubjectArt           Subject = "art"
	SubjectPE            Subject = "pe"
)

// Phase buckets activities inside a lesson.
type Phase string

const (
	PhaseIntro   Phase = "intro"
	PhaseMain    Phase = "main"
	PhaseClosing Phase = "closing"
)

// Phases lists every phase in lesson order.
var Phases = []Phase{PhaseIntro, PhaseMain, PhaseClosing}

// Valid reports whether p is one of the fixed phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIntro, PhaseMain, PhaseClosing:
		return true
	default:
		return false
	}
}

// Grouping describes how students are organised during an activity.
type Grouping string

const (
	GroupingWholeClass Grouping = "whole-class"
	GroupingSmallGroup Grouping = "small-group"
	GroupingPairs      Grouping = "pairs"
	GroupingIndividual Grouping = "individual"
)

// Activity is one timed step of a lesson plan.
type Activity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Duration int      `json:"duration"`
	Phase    Phase    `json:"phase"`
	Grouping Grouping `json:"grouping"`
	Order    int      `json:"order"`
}

// Objective is a learning goal attached to a lesson plan.
type Objective struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Material is a resource needed to run a lesson plan.
type Material struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty"`
}

// LessonPlan is a teacher authored lesson. Duration is the planned target in minutes.
type LessonPlan struct {
	ID         string        `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	Subject    Subject       `db:"subject" json:"subject"`
	Duration   int           `db:"duration" json:"duration"`
	Activities ActivityList  `db:"activities" json:"activities"`
	Objectives ObjectiveList `db:"objectives" json:"objectives"`
	Materials  MaterialList  `db:"materials" json:"materials"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updatedAt"`
}

// ActivityList is stored as a JSONB array.
type ActivityList []Activity

// ObjectiveList is stored as a JSONB array.
type ObjectiveList []Objective

// MaterialList is stored as a JSONB array.
type MaterialList []Material

// Value marshals the activities for persistence.
func (l ActivityList) Value() (driver.Value, error) { return marshalList(l, "activities") }

// Scan unmarshals a JSONB payload.
func (l *ActivityList) Scan(value interface{}) error { return scanList(value, l, "activities") }

// Value marshals the objectives for persistence.
func (l ObjectiveList) Value() (driver.Value, error) { return marshalList(l, "objectives") }

// Scan unmarshals a JSONB payload.
func (l *ObjectiveList) Scan(value interface{}) error { return scanList(value, l, "objectives") }

// Value marshals the materials for persistence.
func (l MaterialList) Value() (driver.Value, error) { return marshalList(l, "materials") }

// Scan unmarshals a JSONB payload.
func (l *MaterialList) Scan(value interface{}) error { return scanList(value, l, "materials") }

func marshalList[T any](items []T, label string) (driver.Value, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal lesson plan %s: %w", label, err)
	}
	return data, nil
}

func scanList(value interface{}, dest interface{}, label string) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for lesson plan %s", value, label)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal lesson plan %s: %w", label, err)
	}
	return nil
}
