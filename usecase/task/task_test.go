package task

import (
	"context"
	"testing"
	"time"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/repository"
)

type fakeTasks struct {
	owned   map[string]*domain.Task // keyed by id; UserID enforced
	created *domain.Task
}

func (f *fakeTasks) GetOwned(ctx context.Context, id, userID string) (*domain.Task, error) {
	task, ok := f.owned[id]
	if !ok || task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTasks) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (f *fakeTasks) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	f.created = task
	return task, nil
}

func (f *fakeTasks) Update(ctx context.Context, task *domain.Task) error { return nil }
func (f *fakeTasks) Delete(ctx context.Context, id, userID string) error { return nil }

// fakeCompletions honors the one-record-per-(task, day) contract the
// real store enforces with its unique key, so re-marking upserts
// instead of duplicating.
type fakeCompletions struct {
	records  map[string]*domain.CompletionRecord // keyed "taskID/day"
	marked   []string
	unmarked []string
}

func completionKey(taskID, day string) string {
	return taskID + "/" + day
}

func (f *fakeCompletions) IsCompleted(ctx context.Context, taskID, day string) (bool, error) {
	_, ok := f.records[completionKey(taskID, day)]
	return ok, nil
}

func (f *fakeCompletions) Mark(ctx context.Context, taskID, day string) (*domain.CompletionRecord, error) {
	f.marked = append(f.marked, completionKey(taskID, day))
	if f.records == nil {
		f.records = map[string]*domain.CompletionRecord{}
	}
	if existing, ok := f.records[completionKey(taskID, day)]; ok {
		existing.CompletedAt = time.Now()
		return existing, nil
	}
	record := &domain.CompletionRecord{TaskID: taskID, CompletedOn: day, CompletedAt: time.Now()}
	f.records[completionKey(taskID, day)] = record
	return record, nil
}

func (f *fakeCompletions) Unmark(ctx context.Context, taskID, day string) (*domain.CompletionRecord, error) {
	f.unmarked = append(f.unmarked, completionKey(taskID, day))
	record, ok := f.records[completionKey(taskID, day)]
	if !ok {
		return nil, nil
	}
	delete(f.records, completionKey(taskID, day))
	return record, nil
}

func (f *fakeCompletions) List(ctx context.Context, taskID, from, to string) ([]domain.CompletionRecord, error) {
	var out []domain.CompletionRecord
	for _, record := range f.records {
		if record.TaskID != taskID {
			continue
		}
		if from != "" && record.CompletedOn < from {
			continue
		}
		if to != "" && record.CompletedOn > to {
			continue
		}
		out = append(out, *record)
	}
	return out, nil
}

func (f *fakeCompletions) CompletedOn(ctx context.Context, userID, day string) (map[string]struct{}, error) {
	return nil, nil
}

type fakeUsers struct {
	user *domain.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, domain.ErrUserNotFound
	}
	return f.user, nil
}
func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error        { return nil }
func (f *fakeUsers) UpdateProfile(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUsers) List(ctx context.Context) ([]domain.User, error)            { return nil, nil }
func (f *fakeUsers) ApplyStreak(ctx context.Context, userID string, update domain.StreakUpdate) (bool, error) {
	return false, nil
}

func newUseCase(tasks *fakeTasks, completions *fakeCompletions, users *fakeUsers) *UseCase {
	if tasks == nil {
		tasks = &fakeTasks{}
	}
	if completions == nil {
		completions = &fakeCompletions{}
	}
	if users == nil {
		users = &fakeUsers{user: &domain.User{ID: "u1", Timezone: "UTC"}}
	}
	return New(tasks, completions, users, nil)
}

func validRecurring() *domain.Task {
	return &domain.Task{
		UserID:    "u1",
		Title:     "stretch",
		Type:      domain.TypeRecurring,
		Frequency: domain.FrequencyDaily,
		Interval:  1,
		StartDate: "2024-01-01",
	}
}

func TestCreateTaskValidation(t *testing.T) {
	due := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		mutate  func(*domain.Task)
		wantErr bool
	}{
		{"valid daily", nil, false},
		{"valid one-time", func(task *domain.Task) {
			task.Type = domain.TypeOneTime
			task.Frequency = ""
			task.StartDate = ""
			task.DueAt = &due
		}, false},
		{"valid weekly with sets", func(task *domain.Task) {
			task.Frequency = domain.FrequencyWeekly
			task.ByWeekday = []int{1, 3, 5}
		}, false},
		{"missing title", func(task *domain.Task) { task.Title = "" }, true},
		{"one-time without due instant", func(task *domain.Task) {
			task.Type = domain.TypeOneTime
		}, true},
		{"unknown type", func(task *domain.Task) { task.Type = "sometimes" }, true},
		{"unknown frequency", func(task *domain.Task) { task.Frequency = "hourly" }, true},
		{"zero interval", func(task *domain.Task) { task.Interval = 0 }, true},
		{"negative interval", func(task *domain.Task) { task.Interval = -2 }, true},
		{"missing start date", func(task *domain.Task) { task.StartDate = "" }, true},
		{"end before start", func(task *domain.Task) {
			task.StartDate = "2024-06-01"
			task.EndDate = "2024-05-01"
		}, true},
		{"malformed anchor", func(task *domain.Task) { task.AnchorDate = "someday" }, true},
		{"weekday out of range", func(task *domain.Task) {
			task.Frequency = domain.FrequencyWeekly
			task.ByWeekday = []int{0}
		}, true},
		{"weekday eight", func(task *domain.Task) {
			task.Frequency = domain.FrequencyWeekly
			task.ByWeekday = []int{8}
		}, true},
		{"monthday out of range", func(task *domain.Task) {
			task.Frequency = domain.FrequencyMonthly
			task.ByMonthday = []int{32}
		}, true},
		{"malformed time of day", func(task *domain.Task) { task.TimeOfDay = "25:00" }, true},
		{"negative reminder lead", func(task *domain.Task) { task.ReminderLeadMinutes = -5 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := validRecurring()
			if tc.mutate != nil {
				tc.mutate(task)
			}

			uc := newUseCase(nil, nil, nil)
			_, err := uc.CreateTask(context.Background(), task)
			if tc.wantErr {
				if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
					t.Fatalf("want invalid domain error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateTask: %v", err)
			}
		})
	}
}

func TestCompleteChecksOwnership(t *testing.T) {
	tasks := &fakeTasks{owned: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Title: "mine"},
		"t2": {ID: "t2", UserID: "someone-else", Title: "theirs"},
	}}
	completions := &fakeCompletions{}
	uc := newUseCase(tasks, completions, nil)

	if _, err := uc.Complete(context.Background(), "t1", "u1", "2024-06-15"); err != nil {
		t.Fatalf("Complete own task: %v", err)
	}
	if len(completions.marked) != 1 || completions.marked[0] != "t1/2024-06-15" {
		t.Errorf("marked = %v", completions.marked)
	}

	// Another user's task and a missing task answer identically.
	_, errForeign := uc.Complete(context.Background(), "t2", "u1", "2024-06-15")
	_, errMissing := uc.Complete(context.Background(), "nope", "u1", "2024-06-15")
	for _, err := range []error{errForeign, errMissing} {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			t.Errorf("want not-found, got %v", err)
		}
	}
}

func TestCompleteSameDayCollapsesIntoOneRecord(t *testing.T) {
	tasks := &fakeTasks{owned: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Title: "mine"},
	}}
	completions := &fakeCompletions{}
	uc := newUseCase(tasks, completions, nil)

	first, err := uc.Complete(context.Background(), "t1", "u1", "2024-06-15")
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	// Back-date the stored audit timestamp so a refresh is observable.
	stale := time.Now().Add(-time.Hour)
	completions.records[completionKey("t1", "2024-06-15")].CompletedAt = stale

	second, err := uc.Complete(context.Background(), "t1", "u1", "2024-06-15")
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if second.CompletedOn != first.CompletedOn {
		t.Errorf("CompletedOn changed across re-mark: %s != %s", second.CompletedOn, first.CompletedOn)
	}
	if !second.CompletedAt.After(stale) {
		t.Error("re-marking must refresh CompletedAt")
	}

	records, err := uc.Completions(context.Background(), "t1", "u1", "", "")
	if err != nil {
		t.Fatalf("Completions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d after double mark, want exactly 1", len(records))
	}

	// A different day is a distinct record.
	if _, err := uc.Complete(context.Background(), "t1", "u1", "2024-06-16"); err != nil {
		t.Fatalf("next-day Complete: %v", err)
	}
	records, err = uc.Completions(context.Background(), "t1", "u1", "", "")
	if err != nil {
		t.Fatalf("Completions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d across two days, want 2", len(records))
	}
}

func TestCompleteDefaultsToOwnerLocalToday(t *testing.T) {
	tasks := &fakeTasks{owned: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Title: "mine"},
	}}
	completions := &fakeCompletions{}
	users := &fakeUsers{user: &domain.User{ID: "u1", Timezone: "Pacific/Kiritimati"}}
	uc := newUseCase(tasks, completions, users)

	// UTC+14: the owner's "today" can be ahead of UTC's. Bracket the call
	// so a run straddling the owner's midnight accepts either day.
	loc, err := time.LoadLocation("Pacific/Kiritimati")
	if err != nil {
		t.Fatal(err)
	}
	before := time.Now().In(loc).Format("2006-01-02")

	record, err := uc.Complete(context.Background(), "t1", "u1", "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	after := time.Now().In(loc).Format("2006-01-02")
	if record.CompletedOn != before && record.CompletedOn != after {
		t.Errorf("CompletedOn = %s, want owner-local %s or %s", record.CompletedOn, before, after)
	}
}

func TestCompleteRejectsMalformedDay(t *testing.T) {
	tasks := &fakeTasks{owned: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Title: "mine"},
	}}
	uc := newUseCase(tasks, nil, nil)

	for _, day := range []string{"June 15", "2024-6-15", "2024-13-40"} {
		if _, err := uc.Complete(context.Background(), "t1", "u1", day); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Errorf("Complete(%q): want invalid, got %v", day, err)
		}
	}
}

func TestUncompleteAbsentRecordIsNoError(t *testing.T) {
	tasks := &fakeTasks{owned: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Title: "mine"},
	}}
	completions := &fakeCompletions{}
	uc := newUseCase(tasks, completions, nil)

	record, err := uc.Uncomplete(context.Background(), "t1", "u1", "2024-06-15")
	if err != nil {
		t.Fatalf("Uncomplete: %v", err)
	}
	if record != nil {
		t.Errorf("record = %+v, want nil for absent completion", record)
	}
}

func TestCompletionsValidatesBounds(t *testing.T) {
	tasks := &fakeTasks{owned: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Title: "mine"},
	}}
	uc := newUseCase(tasks, nil, nil)

	if _, err := uc.Completions(context.Background(), "t1", "u1", "", ""); err != nil {
		t.Fatalf("unbounded listing: %v", err)
	}
	if _, err := uc.Completions(context.Background(), "t1", "u1", "2024-01-01", "2024-06-30"); err != nil {
		t.Fatalf("bounded listing: %v", err)
	}
	if _, err := uc.Completions(context.Background(), "t1", "u1", "start", ""); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("want invalid bound error, got %v", err)
	}
}
