package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFuture_ResolveOnce(t *testing.T) {
	f := New[string]()

	if f.Status() != StatusPending {
		t.Fatalf("expected PENDING, got %s", f.Status())
	}
	if !f.Resolve("first") {
		t.Fatal("first Resolve should succeed")
	}
	if f.Resolve("second") {
		t.Error("second Resolve should be ignored")
	}
	if f.Reject(errors.New("late")) {
		t.Error("Reject after Resolve should be ignored")
	}

	value, err, ok := f.Result()
	if !ok || err != nil || value != "first" {
		t.Errorf("expected (first, nil, true), got (%q, %v, %v)", value, err, ok)
	}
	if f.Status() != StatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", f.Status())
	}
}

func TestFuture_RejectOnce(t *testing.T) {
	f := New[int]()
	first := errors.New("first")

	if !f.Reject(first) {
		t.Fatal("first Reject should succeed")
	}
	if f.Reject(errors.New("second")) || f.Resolve(42) {
		t.Error("later settlements should be ignored")
	}

	_, err, ok := f.Result()
	if !ok || !errors.Is(err, first) {
		t.Errorf("expected first error, got %v", err)
	}
	if f.Status() != StatusFailed {
		t.Errorf("expected FAILED, got %s", f.Status())
	}
}

func TestFuture_ResultWhilePending(t *testing.T) {
	f := New[int]()
	if _, _, ok := f.Result(); ok {
		t.Error("pending future should not report a result")
	}
}

func TestFuture_ConcurrentSettlement(t *testing.T) {
	f := New[int]()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = f.Resolve(i)
			} else {
				ok = f.Reject(errors.New("boom"))
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one winning settlement, got %d", wins.Load())
	}
	if !f.Status().IsTerminal() {
		t.Error("future should be terminal")
	}
}

func TestFuture_Await(t *testing.T) {
	f := New[string]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve("done")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	value, err := f.Await(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "done" {
		t.Errorf("expected done, got %s", value)
	}
}

func TestFuture_AwaitContextCancelled(t *testing.T) {
	f := New[string]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	// Отмена ожидания не завершает Future.
	if f.Status() != StatusPending {
		t.Errorf("expected PENDING, got %s", f.Status())
	}
}

func TestFuture_OnComplete(t *testing.T) {
	f := New[int]()

	var calls atomic.Int32
	var got int
	f.OnComplete(func(v int, err error) {
		calls.Add(1)
		got = v
	})

	f.Resolve(7)
	f.Resolve(8)

	if calls.Load() != 1 {
		t.Errorf("expected 1 callback call, got %d", calls.Load())
	}
	if got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	// Регистрация после завершения вызывает колбэк сразу.
	var late error = errors.New("unset")
	f.OnComplete(func(_ int, err error) { late = err })
	if late != nil {
		t.Errorf("expected nil error in late callback, got %v", late)
	}
}
