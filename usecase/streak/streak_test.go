package streak

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
)

type fakeUsers struct {
	mu      sync.Mutex
	applied []domain.StreakUpdate
	// watermark simulates the conditional update guard.
	watermark string
	applyErr  error
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) { return nil, nil }
func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, nil
}
func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error        { return nil }
func (f *fakeUsers) UpdateProfile(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUsers) List(ctx context.Context) ([]domain.User, error)            { return nil, nil }

func (f *fakeUsers) ApplyStreak(ctx context.Context, userID string, update domain.StreakUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return false, f.applyErr
	}
	if f.watermark != "" && f.watermark >= update.LastProcessedDate {
		return false, nil
	}
	f.watermark = update.LastProcessedDate
	f.applied = append(f.applied, update)
	return true, nil
}

type fakeResolver struct {
	mu      sync.Mutex
	summary domain.DueSummary
	err     error
	days    []string
}

func (f *fakeResolver) Summary(ctx context.Context, user *domain.User, day dates.Day) (domain.DueSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.days = append(f.days, day.String())
	return f.summary, f.err
}

func dueSummary(due, missed int) domain.DueSummary {
	return domain.DueSummary{Daily: domain.CategoryCount{Due: due, Missed: missed}}
}

// noonUTC gives an instant whose UTC calendar day equals its local day in
// the zones used below, keeping expectations readable.
func noonUTC(day string) time.Time {
	d := dates.MustParse(day)
	return d.At(12, 0, time.UTC)
}

func TestProcessUserEvaluatesPreviousDay(t *testing.T) {
	users := &fakeUsers{}
	resolver := &fakeResolver{summary: dueSummary(2, 0)}
	uc := New(users, resolver, nil)

	user := domain.User{ID: "u1", Timezone: "UTC", StreakCurrent: 3, StreakBest: 5}

	result, err := uc.ProcessUser(context.Background(), user, noonUTC("2024-06-15"))
	if err != nil {
		t.Fatalf("ProcessUser: %v", err)
	}
	if !result.Applied || result.Outcome != domain.StreakAdvance {
		t.Fatalf("result = %+v, want applied advance", result)
	}

	if len(resolver.days) != 1 || resolver.days[0] != "2024-06-14" {
		t.Errorf("resolver evaluated %v, want the single previous day", resolver.days)
	}
	if len(users.applied) != 1 {
		t.Fatalf("applied %d updates, want 1", len(users.applied))
	}
	update := users.applied[0]
	if update.Current != 4 || update.Best != 5 || update.LastProcessedDate != "2024-06-15" {
		t.Errorf("update = %+v", update)
	}
}

func TestProcessUserSkipsWhenWatermarkCurrent(t *testing.T) {
	users := &fakeUsers{}
	resolver := &fakeResolver{summary: dueSummary(1, 0)}
	uc := New(users, resolver, nil)

	user := domain.User{ID: "u1", Timezone: "UTC", LastProcessedDate: "2024-06-15"}

	result, err := uc.ProcessUser(context.Background(), user, noonUTC("2024-06-15"))
	if err != nil {
		t.Fatalf("ProcessUser: %v", err)
	}
	if result.Applied {
		t.Error("same-day re-run must be a no-op")
	}
	if len(resolver.days) != 0 {
		t.Errorf("resolver consulted %v on a no-op run", resolver.days)
	}
}

func TestProcessUserResolverFailureLeavesWatermark(t *testing.T) {
	users := &fakeUsers{}
	resolver := &fakeResolver{err: errors.New("store down")}
	uc := New(users, resolver, nil)

	user := domain.User{ID: "u1", Timezone: "UTC", LastProcessedDate: "2024-06-14"}

	if _, err := uc.ProcessUser(context.Background(), user, noonUTC("2024-06-15")); err == nil {
		t.Fatal("expected resolver error to propagate")
	}
	if len(users.applied) != 0 {
		t.Error("failed resolution must not move the watermark")
	}

	// Next invocation retries the same day once the store recovers.
	resolver.err = nil
	resolver.summary = dueSummary(0, 0)
	result, err := uc.ProcessUser(context.Background(), user, noonUTC("2024-06-15"))
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !result.Applied || result.Outcome != domain.StreakHold {
		t.Errorf("retry result = %+v, want applied hold", result)
	}
}

func TestProcessUserLosesWatermarkRaceGracefully(t *testing.T) {
	users := &fakeUsers{watermark: "2024-06-15"}
	resolver := &fakeResolver{summary: dueSummary(1, 0)}
	uc := New(users, resolver, nil)

	// Stale snapshot: another process already handled today.
	user := domain.User{ID: "u1", Timezone: "UTC", LastProcessedDate: "2024-06-14"}

	result, err := uc.ProcessUser(context.Background(), user, noonUTC("2024-06-15"))
	if err != nil {
		t.Fatalf("ProcessUser: %v", err)
	}
	if result.Applied {
		t.Error("losing the watermark race must not report an applied update")
	}
}

func TestProcessUserConcurrentRunsApplyOnce(t *testing.T) {
	users := &fakeUsers{}
	resolver := &fakeResolver{summary: dueSummary(2, 1)}
	uc := New(users, resolver, nil)

	user := domain.User{ID: "u1", Timezone: "UTC", StreakCurrent: 6}
	now := noonUTC("2024-06-15")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.ProcessUser(context.Background(), user, now); err != nil {
				t.Errorf("ProcessUser: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(users.applied) != 1 {
		t.Fatalf("applied %d updates under concurrency, want exactly 1", len(users.applied))
	}
	if users.applied[0].Outcome != domain.StreakReset || users.applied[0].Current != 0 {
		t.Errorf("update = %+v, want reset to zero", users.applied[0])
	}
}

func TestProcessUserRejectsInvalidTimezone(t *testing.T) {
	uc := New(&fakeUsers{}, &fakeResolver{}, nil)
	user := domain.User{ID: "u1", Timezone: "Nowhere/Atlantis"}

	_, err := uc.ProcessUser(context.Background(), user, time.Now())
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("want invalid-timezone domain error, got %v", err)
	}
}
