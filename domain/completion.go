package domain

import "time"

// CompletionRecord states that a task was marked done for a calendar date.
// At most one record exists per (task, completed_on); re-marking the same
// date refreshes CompletedAt instead of duplicating.
type CompletionRecord struct {
	TaskID      string    `json:"task_id"`
	CompletedOn string    `json:"completed_on"`
	CompletedAt time.Time `json:"completed_at"`
}
