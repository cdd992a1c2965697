package domain

import "time"

// TaskType distinguishes one-off tasks from recurring ones.
type TaskType string

const (
	TypeOneTime   TaskType = "one_time"
	TypeRecurring TaskType = "recurring"
)

// Frequency is the recurrence cadence of a recurring task.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Task represents a user-owned unit of work, one-time or recurring.
//
// For recurring tasks the anchor date is the reference for interval math;
// when unset it defaults to the start date. Empty ByWeekday/ByMonthday
// sets mean "recur on the anchor's own weekday / day-of-month".
type Task struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	CategoryID  string   `json:"category_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Importance  string   `json:"importance,omitempty"`
	Type        TaskType `json:"type"`

	// One-time only.
	DueAt *time.Time `json:"due_at,omitempty"`

	// Recurring only.
	Frequency  Frequency `json:"recurrence_frequency,omitempty"`
	Interval   int       `json:"recurrence_interval,omitempty"`
	ByWeekday  []int     `json:"recurrence_by_weekday,omitempty"`
	ByMonthday []int     `json:"recurrence_by_monthday,omitempty"`
	StartDate  string    `json:"recurrence_start_date,omitempty"`
	EndDate    string    `json:"recurrence_end_date,omitempty"`
	AnchorDate string    `json:"recurrence_anchor_date,omitempty"`

	// TimeOfDay is a local "HH:MM" clock string used for the recurring
	// due instant and for reminder computation.
	TimeOfDay string `json:"time_of_day,omitempty"`

	ReminderEnabled     bool `json:"reminder_enabled"`
	ReminderLeadMinutes int  `json:"reminder_before_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRecurring reports whether the task carries a recurrence rule.
func (t *Task) IsRecurring() bool {
	return t != nil && t.Type == TypeRecurring
}

// EffectiveInterval returns the recurrence interval, treating missing or
// malformed stored values as 1 so evaluation never divides by zero.
// Intervals below 1 are rejected at the validation boundary; this is the
// fail-closed fallback for rows that predate it.
func (t *Task) EffectiveInterval() int {
	if t == nil || t.Interval < 1 {
		return 1
	}
	return t.Interval
}

// EffectiveAnchor returns the anchor date string, defaulting to the start date.
func (t *Task) EffectiveAnchor() string {
	if t == nil {
		return ""
	}
	if t.AnchorDate != "" {
		return t.AnchorDate
	}
	return t.StartDate
}
