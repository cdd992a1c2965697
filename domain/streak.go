package domain

import "github.com/dailydone/backend/pkg/dates"

// CategoryCount is the due/missed tally for one task category on one day.
type CategoryCount struct {
	Due    int `json:"due"`
	Missed int `json:"missed"`
}

// DueSummary is the per-category breakdown of tasks due and due-but-missed
// for a user on a single calendar day. Categories are resolved and counted
// independently, then summed; none is special-cased in aggregation.
type DueSummary struct {
	OneTime CategoryCount `json:"one_time"`
	Daily   CategoryCount `json:"daily"`
	Weekly  CategoryCount `json:"weekly"`
	Monthly CategoryCount `json:"monthly"`
}

// TotalDue sums tasks due across all categories.
func (s DueSummary) TotalDue() int {
	return s.OneTime.Due + s.Daily.Due + s.Weekly.Due + s.Monthly.Due
}

// TotalMissed sums due-but-uncompleted tasks across all categories.
func (s DueSummary) TotalMissed() int {
	return s.OneTime.Missed + s.Daily.Missed + s.Weekly.Missed + s.Monthly.Missed
}

// StreakOutcome names the three possible nightly transitions.
type StreakOutcome string

const (
	// StreakHold: nothing was due, so the day neither advances nor
	// resets the streak. Only the watermark moves.
	StreakHold StreakOutcome = "hold"
	// StreakReset: at least one due task was missed.
	StreakReset StreakOutcome = "reset"
	// StreakAdvance: every due task was completed.
	StreakAdvance StreakOutcome = "advance"
)

// StreakUpdate is the state the nightly transition wants persisted.
type StreakUpdate struct {
	Current           int
	Best              int
	LastProcessedDate string
	Outcome           StreakOutcome
}

// NeedsStreakRun reports whether the user has crossed into a new local
// day since the watermark. Empty watermark means never processed. An
// unparsable stored watermark triggers a run so the row self-heals.
func (u *User) NeedsStreakRun(todayLocal dates.Day) bool {
	if u == nil {
		return false
	}
	if u.LastProcessedDate == "" {
		return true
	}
	last, err := dates.Parse(u.LastProcessedDate)
	if err != nil {
		return true
	}
	return todayLocal.After(last)
}

// NextStreak computes the transition for the day immediately before
// todayLocal, given that day's due summary. The decision is three-way
// keyed on (totalDue == 0, totalMissed == 0): a day with nothing due is
// not a user failure and must hold the streak rather than reset it.
func (u *User) NextStreak(summary DueSummary, todayLocal dates.Day) StreakUpdate {
	update := StreakUpdate{
		Current:           u.StreakCurrent,
		Best:              u.StreakBest,
		LastProcessedDate: todayLocal.String(),
	}

	switch {
	case summary.TotalDue() == 0:
		update.Outcome = StreakHold
	case summary.TotalMissed() > 0:
		update.Outcome = StreakReset
		update.Current = 0
	default:
		update.Outcome = StreakAdvance
		update.Current = u.StreakCurrent + 1
		if update.Current > update.Best {
			update.Best = update.Current
		}
	}
	return update
}
