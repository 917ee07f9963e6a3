package models

import "time"

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID            string    `json:"run_id"`
	RefreshTimestamp time.Time `json:"refresh_timestamp"`
	SnapshotLocator  string    `json:"snapshot_locator"`
	Brands           int       `json:"brands"`
	Articles         int       `json:"articles"`
	Scraped          int       `json:"scraped"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
}

// IsEmpty reports whether the run produced nothing to persist.
func (r RunResult) IsEmpty() bool {
	return r.Articles == 0 && r.SnapshotLocator == ""
}
