package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestValidateSpec(t *testing.T) {
	valid := []string{"@every 5s", "*/5 * * * *", "@hourly", EverySpec(250 * time.Millisecond)}
	for _, spec := range valid {
		if err := ValidateSpec(spec); err != nil {
			t.Errorf("ValidateSpec(%q) unexpected error: %v", spec, err)
		}
	}

	invalid := []string{"", "every 5s", "* * *", "@sometimes"}
	for _, spec := range invalid {
		if err := ValidateSpec(spec); err == nil {
			t.Errorf("ValidateSpec(%q) expected error", spec)
		}
	}
}

func TestNextAfter(t *testing.T) {
	from := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	next, err := NextAfter("@every 5s", from)
	if err != nil {
		t.Fatal(err)
	}
	if !next.Equal(from.Add(5 * time.Second)) {
		t.Errorf("expected %v, got %v", from.Add(5*time.Second), next)
	}

	next, err = NextAfter("0 * * * *", from)
	if err != nil {
		t.Fatal(err)
	}
	if !next.Equal(from.Add(time.Hour)) {
		t.Errorf("expected %v, got %v", from.Add(time.Hour), next)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Spec: "bogus", Job: func(context.Context) error { return nil }}); err == nil {
		t.Error("expected error for invalid spec")
	}
	if _, err := New(Config{Spec: "@every 1s"}); err == nil {
		t.Error("expected error for missing job")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(Config{Spec: "@every 1h", Job: func(context.Context) error { return nil }})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start should be a no-op: %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}

	s.Stop()
	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	wantErr := errors.New("boom")
	var deadlineSet bool
	s, err := New(Config{
		Spec:       "@every 1h",
		JobTimeout: time.Second,
		Job: func(ctx context.Context) error {
			_, deadlineSet = ctx.Deadline()
			return wantErr
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RunNow(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected job error, got %v", err)
	}
	if !deadlineSet {
		t.Error("job context should carry a deadline")
	}
}
