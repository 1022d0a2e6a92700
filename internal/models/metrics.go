package models

import "time"

// SystemMetrics is a lightweight snapshot of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	AssignmentsAccepted      uint64    `json:"assignmentsAccepted"`
	AssignmentsRejected      uint64    `json:"assignmentsRejected"`
	SeatingRuns              uint64    `json:"seatingRuns"`
	ExportsQueued            int       `json:"exportsQueued"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
