package transport

// RegisterRequest carries the signup payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
}

// LoginRequest carries the credential check payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
}

type ProfileUpdateRequest struct {
	Username string `json:"username"`
	Timezone string `json:"timezone"`
}

// TaskRequest is the create/update payload. Recurrence fields are only
// meaningful when type is "recurring"; due_at only when "one_time".
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Difficulty  string `json:"difficulty"`
	Importance  string `json:"importance"`
	Type        string `json:"type"`

	DueAt string `json:"due_at"`

	Frequency  string `json:"recurrence_frequency"`
	Interval   int    `json:"recurrence_interval"`
	ByWeekday  []int  `json:"recurrence_by_weekday"`
	ByMonthday []int  `json:"recurrence_by_monthday"`
	StartDate  string `json:"recurrence_start_date"`
	EndDate    string `json:"recurrence_end_date"`
	AnchorDate string `json:"recurrence_anchor_date"`

	TimeOfDay string `json:"time_of_day"`

	ReminderEnabled     bool `json:"reminder_enabled"`
	ReminderLeadMinutes int  `json:"reminder_before_minutes"`
}

// CompletionRequest optionally names the local day being toggled;
// empty means "today" in the owner's timezone.
type CompletionRequest struct {
	Date string `json:"date"`
}
