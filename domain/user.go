package domain

import "time"

// User owns tasks and carries streak state.
//
// StreakCurrent, StreakBest and LastProcessedDate are mutated exclusively
// by the nightly streak transition; completion toggles never touch them.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`

	// Timezone is an IANA zone string; every "day" for this user is
	// derived in this zone.
	Timezone string `json:"timezone"`

	StreakCurrent int `json:"streak_current"`
	StreakBest    int `json:"streak_best"`

	// LastProcessedDate is the watermark ("YYYY-MM-DD", local to the
	// user's timezone) of the last day the streak transition ran.
	// Empty means the user has never been processed.
	LastProcessedDate string `json:"last_processed_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
