package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is one platform attempt within a search.
type ScrapeRun struct {
	ID            int64      `json:"id" db:"id"`
	Platform      string     `json:"platform" db:"platform"`
	Query         string     `json:"query" db:"query"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	DurationMS    int64      `json:"duration_ms" db:"duration_ms"`
	Error         string     `json:"error,omitempty" db:"error"`
}

type PlatformStats struct {
	Platform      string     `json:"platform" db:"platform"`
	LastRunAt     *time.Time `json:"last_run_at" db:"last_run_at"`
	LastRunStatus string     `json:"last_run_status" db:"last_run_status"`
	TotalRuns     int        `json:"total_runs" db:"total_runs"`
	TotalListings int        `json:"total_listings" db:"total_listings"`
	SuccessRate   float64    `json:"success_rate" db:"success_rate"`
	AvgDurationMS int64      `json:"avg_duration_ms" db:"avg_duration_ms"`
}
