package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeReader struct {
	enabled  bool
	interval time.Duration
	lastRun  *time.Time
	err      error
}

func (f *fakeReader) Schedule(ctx context.Context) (bool, time.Duration, error) {
	return f.enabled, f.interval, f.err
}

func (f *fakeReader) LastRunStart(ctx context.Context) (*time.Time, error) {
	return f.lastRun, nil
}

func newTestScheduler(reader *fakeReader, trigger Trigger, at time.Time) *Scheduler {
	s := New(reader, trigger, Config{}, nil)
	s.now = func() time.Time { return at }
	return s
}

func TestTickTriggersWhenDue(t *testing.T) {
	// WHAT: A tick fires the trigger when last run + interval has passed.
	// WHY: This is the core recurrence rule.
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	last := now.Add(-2 * time.Hour)
	reader := &fakeReader{enabled: true, interval: time.Hour, lastRun: &last}

	fired := 0
	s := newTestScheduler(reader, func(ctx context.Context) error {
		fired++
		return nil
	}, now)

	s.tick(context.Background())
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestTickSkipsWhenNotDue(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Minute)
	reader := &fakeReader{enabled: true, interval: time.Hour, lastRun: &last}

	fired := 0
	s := newTestScheduler(reader, func(ctx context.Context) error {
		fired++
		return nil
	}, now)

	s.tick(context.Background())
	if fired != 0 {
		t.Fatalf("fired = %d, want 0", fired)
	}
}

func TestTickSkipsWhenDisabled(t *testing.T) {
	// WHAT: A disabled schedule never triggers, even when overdue.
	// WHY: Pausing the scheduler must stop new runs without a restart.
	now := time.Now()
	last := now.Add(-24 * time.Hour)
	reader := &fakeReader{enabled: false, interval: time.Minute, lastRun: &last}

	fired := 0
	s := newTestScheduler(reader, func(ctx context.Context) error {
		fired++
		return nil
	}, now)

	s.tick(context.Background())
	if fired != 0 {
		t.Fatalf("fired = %d, want 0", fired)
	}
}

func TestTickTriggersWhenNeverRun(t *testing.T) {
	// WHAT: With no prior run, an enabled schedule fires immediately.
	reader := &fakeReader{enabled: true, interval: time.Hour}

	fired := 0
	s := newTestScheduler(reader, func(ctx context.Context) error {
		fired++
		return nil
	}, time.Now())

	s.tick(context.Background())
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestTickToleratesDeclinedTrigger(t *testing.T) {
	// WHAT: A trigger rejection (run already in progress) is not fatal.
	// WHY: Long runs overlap poll ticks; the scheduler just waits.
	now := time.Now()
	reader := &fakeReader{enabled: true, interval: time.Minute}

	s := newTestScheduler(reader, func(ctx context.Context) error {
		return errors.New("already running")
	}, now)

	s.tick(context.Background()) // must not panic or propagate
}

func TestNextRun(t *testing.T) {
	// WHAT: NextRun is last run + interval, nil when disabled, now when
	// nothing has run yet.
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	last := now.Add(-20 * time.Minute)

	reader := &fakeReader{enabled: true, interval: time.Hour, lastRun: &last}
	s := newTestScheduler(reader, nil, now)

	next, err := s.NextRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if next == nil || !next.Equal(last.Add(time.Hour)) {
		t.Errorf("next = %v, want %v", next, last.Add(time.Hour))
	}

	reader.enabled = false
	next, err = s.NextRun(context.Background())
	if err != nil || next != nil {
		t.Errorf("disabled: next = %v, err = %v", next, err)
	}

	reader.enabled = true
	reader.lastRun = nil
	next, err = s.NextRun(context.Background())
	if err != nil || next == nil || !next.Equal(now) {
		t.Errorf("never run: next = %v, err = %v", next, err)
	}
}
