package health

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(time.Second)

	ok := func(ctx context.Context) error { return nil }

	if err := r.Register("database", ok); err != nil {
		t.Errorf("Register() returned error: %v", err)
	}
	if err := r.Register("database", ok); err == nil {
		t.Error("Register() expected error for duplicate name")
	}
	if err := r.Register("", ok); err == nil {
		t.Error("Register() expected error for empty name")
	}
	if err := r.Register("cache", nil); err == nil {
		t.Error("Register() expected error for nil func")
	}

	if got := r.Names(); !reflect.DeepEqual(got, []string{"database"}) {
		t.Errorf("Names() = %v, want [database]", got)
	}
}

func TestRegistry_RunChecks(t *testing.T) {
	r := NewRegistry(time.Second)

	_ = r.Register("passing", func(ctx context.Context) error { return nil })
	_ = r.Register("failing", func(ctx context.Context) error { return errors.New("down") })

	results := r.RunChecks(context.Background())

	want := map[string]bool{"passing": true, "failing": false}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("RunChecks() = %v, want %v", results, want)
	}
}

func TestRegistry_RunChecks_Timeout(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)

	_ = r.Register("stuck", func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	start := time.Now()
	results := r.RunChecks(context.Background())
	elapsed := time.Since(start)

	if results["stuck"] {
		t.Error("stuck check should fail via timeout")
	}
	if elapsed > time.Second {
		t.Errorf("RunChecks() took %v, timeout not enforced", elapsed)
	}
}

func TestRegistry_Ready(t *testing.T) {
	r := NewRegistry(time.Second)

	ready, checks := r.Ready(context.Background())
	if !ready {
		t.Error("empty registry should be ready")
	}
	if len(checks) != 0 {
		t.Errorf("empty registry checks = %v, want none", checks)
	}

	_ = r.Register("failing", func(ctx context.Context) error { return errors.New("down") })
	ready, checks = r.Ready(context.Background())
	if ready {
		t.Error("registry with failing check should not be ready")
	}
	if checks["failing"] {
		t.Error("failing check should report false")
	}
}

func TestRegistry_Draining(t *testing.T) {
	r := NewRegistry(time.Second)
	_ = r.Register("passing", func(ctx context.Context) error { return nil })

	if r.Draining() {
		t.Error("new registry should not be draining")
	}

	r.SetDraining(true)
	if !r.Draining() {
		t.Error("Draining() should report true after SetDraining")
	}

	// Draining short-circuits: checks are not run
	ready, checks := r.Ready(context.Background())
	if ready {
		t.Error("draining registry should not be ready")
	}
	if checks != nil {
		t.Errorf("draining Ready() checks = %v, want nil", checks)
	}

	r.SetDraining(false)
	if ready, _ := r.Ready(context.Background()); !ready {
		t.Error("registry should be ready again after drain cleared")
	}
}

func TestRegistry_Uptime(t *testing.T) {
	r := NewRegistry(time.Second)

	time.Sleep(10 * time.Millisecond)
	if r.Uptime() <= 0 {
		t.Error("Uptime() should be positive")
	}
	if r.StartTime().After(time.Now()) {
		t.Error("StartTime() is in the future")
	}
}

func TestFailedChecks(t *testing.T) {
	results := map[string]bool{"c": false, "a": false, "b": true}

	got := FailedChecks(results)
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("FailedChecks() = %v, want [a c]", got)
	}

	if got := FailedChecks(nil); got != nil {
		t.Errorf("FailedChecks(nil) = %v, want nil", got)
	}
}

func TestCollectSystemStats(t *testing.T) {
	stats := CollectSystemStats()

	if stats == nil {
		t.Fatal("CollectSystemStats() returned nil")
	}
	if stats.Goroutines <= 0 {
		t.Errorf("Goroutines = %d, want positive", stats.Goroutines)
	}
	if stats.HeapBytes == 0 {
		t.Error("HeapBytes should be non-zero")
	}
}

func TestGoVersion(t *testing.T) {
	if GoVersion() == "" {
		t.Error("GoVersion() is empty")
	}
}
