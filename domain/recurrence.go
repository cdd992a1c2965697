package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dailydone/backend/pkg/dates"
)

// DueOn is the single due-date predicate. Every call site that needs to
// know whether a task is due on a calendar day (the due-summary resolver,
// the nightly streak job, and the reminder selector) goes through this
// function so the three agree bit-for-bit.
//
// loc is the owning user's location; it is only consulted for one-time
// tasks, whose absolute due instant must be rendered as a day in the
// owner's zone.
//
// Malformed stored rows fail closed: any unparsable date yields false
// rather than an error, so one bad task cannot sink a whole batch run.
func (t *Task) DueOn(day dates.Day, loc *time.Location) bool {
	if t == nil || day.IsZero() {
		return false
	}

	switch t.Type {
	case TypeOneTime:
		if t.DueAt == nil {
			return false
		}
		if loc == nil {
			loc = time.UTC
		}
		return dates.FromTime(t.DueAt.In(loc)).Equal(day)
	case TypeRecurring:
		return t.recurringDueOn(day)
	default:
		return false
	}
}

func (t *Task) recurringDueOn(day dates.Day) bool {
	start, err := dates.Parse(t.StartDate)
	if err != nil {
		return false
	}
	if day.Before(start) {
		return false
	}
	if t.EndDate != "" {
		end, err := dates.Parse(t.EndDate)
		if err != nil {
			return false
		}
		if day.After(end) {
			return false
		}
	}

	anchor, err := dates.Parse(t.EffectiveAnchor())
	if err != nil {
		return false
	}

	switch t.Frequency {
	case FrequencyDaily:
		diff := anchor.DaysUntil(day)
		return diff >= 0 && diff%t.EffectiveInterval() == 0
	case FrequencyWeekly:
		return t.weeklyDueOn(day, anchor)
	case FrequencyMonthly:
		return t.monthlyDueOn(day, anchor)
	default:
		return false
	}
}

func (t *Task) weeklyDueOn(day, anchor dates.Day) bool {
	weekday := day.ISOWeekday()
	if len(t.ByWeekday) > 0 {
		if !containsInt(t.ByWeekday, weekday) {
			return false
		}
	} else if weekday != anchor.ISOWeekday() {
		// No explicit weekday set: recur on the anchor's own weekday.
		return false
	}

	weeks := anchor.StartOfWeek().DaysUntil(day.StartOfWeek()) / 7
	return weeks >= 0 && weeks%t.EffectiveInterval() == 0
}

func (t *Task) monthlyDueOn(day, anchor dates.Day) bool {
	dom := day.DayOfMonth()
	if len(t.ByMonthday) > 0 {
		if !containsInt(t.ByMonthday, dom) {
			return false
		}
	} else {
		// Anchor day clamped to the evaluated month, so an anchor on the
		// 31st recurs on Feb 28/29 and Apr 30. Deliberate product
		// behavior, not a rounding artifact.
		want := anchor.DayOfMonth()
		if last := day.LastDayOfMonth(); want > last {
			want = last
		}
		if dom != want {
			return false
		}
	}

	months := anchor.MonthsUntil(day)
	return months >= 0 && months%t.EffectiveInterval() == 0
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ParseClock splits a "HH:MM" local clock string into its components.
func ParseClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q, expected HH:MM", clock)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return hour, minute, nil
}
