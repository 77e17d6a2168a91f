package cpufreq

import (
	"context"
	"errors"
	"testing"
)

func withCounts(fn func(context.Context, bool) (int, error)) option {
	return func(d *collectorDeps) {
		d.countsWithContext = fn
	}
}

func withReadGovernor(fn func(int) (string, bool)) option {
	return func(d *collectorDeps) {
		d.readGovernor = fn
	}
}

func TestCollectReadsGovernorPerCore(t *testing.T) {
	t.Parallel()

	snapshot, err := collect(
		context.Background(),
		withCounts(func(context.Context, bool) (int, error) {
			return 2, nil
		}),
		withReadGovernor(func(core int) (string, bool) {
			if core == 0 {
				return "performance", true
			}
			return "powersave", true
		}),
	)
	if err != nil {
		t.Fatalf("collect returned error: %v", err)
	}

	if len(snapshot.Cores) != 2 {
		t.Fatalf("expected 2 cores, got %d", len(snapshot.Cores))
	}

	expected := []string{"performance", "powersave"}

	for idx, core := range snapshot.Cores {
		if core.CoreID != idx {
			t.Errorf("core %d has unexpected CoreID %d", idx, core.CoreID)
		}
		if core.Governor != expected[idx] {
			t.Errorf("core %d expected governor %s, got %s", idx, expected[idx], core.Governor)
		}
	}
}

func TestCollectSkipsCoresWithoutSysfs(t *testing.T) {
	t.Parallel()

	snapshot, err := collect(
		context.Background(),
		withCounts(func(context.Context, bool) (int, error) {
			return 4, nil
		}),
		withReadGovernor(func(core int) (string, bool) {
			if core%2 == 0 {
				return "schedutil", true
			}
			return "", false
		}),
	)
	if err != nil {
		t.Fatalf("collect returned error: %v", err)
	}

	if len(snapshot.Cores) != 2 {
		t.Fatalf("expected 2 cores, got %d", len(snapshot.Cores))
	}
}

func TestCollectUnavailableWhenNoSysfs(t *testing.T) {
	t.Parallel()

	_, err := collect(
		context.Background(),
		withCounts(func(context.Context, bool) (int, error) {
			return 2, nil
		}),
		withReadGovernor(func(int) (string, bool) {
			return "", false
		}),
	)
	if !errors.Is(err, ErrGovernorUnavailable) {
		t.Fatalf("expected ErrGovernorUnavailable, got %v", err)
	}
}

func TestGovernorsMap(t *testing.T) {
	t.Parallel()

	snapshot := &Snapshot{Cores: []CoreGovernor{
		{CoreID: 0, Governor: "performance"},
		{CoreID: 1, Governor: "performance"},
	}}

	governors := snapshot.Governors()

	if len(governors) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(governors))
	}

	if governors[0] != "performance" || governors[1] != "performance" {
		t.Errorf("unexpected governors map: %v", governors)
	}
}
