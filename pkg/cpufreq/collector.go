package cpufreq

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
)

const sysfsCpufreqPath = "/sys/devices/system/cpu"

// ErrGovernorUnavailable is returned when no governor data could be gathered,
// e.g. on hosts without cpufreq sysfs support.
var ErrGovernorUnavailable = errors.New("cpu governor data unavailable")

// CoreGovernor represents the effective scaling governor for a logical CPU.
type CoreGovernor struct {
	CoreID   int    // zero-based logical core ID
	Governor string // e.g. "performance", "powersave", "ondemand"
}

// Snapshot contains a collection of per-core governor readings.
type Snapshot struct {
	Cores []CoreGovernor
}

// Governors flattens the snapshot into a core-to-governor map for reporting.
func (s *Snapshot) Governors() map[int]string {
	governors := make(map[int]string, len(s.Cores))
	for _, core := range s.Cores {
		governors[core.CoreID] = core.Governor
	}

	return governors
}

type collectorDeps struct {
	countsWithContext func(context.Context, bool) (int, error)
	readGovernor      func(int) (string, bool)
}

type option func(*collectorDeps)

func defaultDeps() collectorDeps {
	return collectorDeps{
		countsWithContext: cpu.CountsWithContext,
		readGovernor:      readGovernor,
	}
}

// Collect gathers per-core scaling governors from cpufreq sysfs.
func Collect(ctx context.Context) (*Snapshot, error) {
	return collect(ctx)
}

func collect(ctx context.Context, opts ...option) (*Snapshot, error) {
	deps := defaultDeps()
	for _, opt := range opts {
		opt(&deps)
	}

	logicalCount, err := deps.countsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to determine logical cpu count: %w", err)
	}

	if logicalCount <= 0 {
		return nil, ErrGovernorUnavailable
	}

	snapshot := &Snapshot{
		Cores: make([]CoreGovernor, 0, logicalCount),
	}

	for core := 0; core < logicalCount; core++ {
		governor, ok := deps.readGovernor(core)
		if !ok {
			continue
		}

		snapshot.Cores = append(snapshot.Cores, CoreGovernor{
			CoreID:   core,
			Governor: governor,
		})
	}

	if len(snapshot.Cores) == 0 {
		return nil, ErrGovernorUnavailable
	}

	return snapshot, nil
}

func readGovernor(core int) (string, bool) {
	path := filepath.Join(sysfsCpufreqPath, fmt.Sprintf("cpu%d/cpufreq/scaling_governor", core))

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	governor := strings.TrimSpace(string(data))
	if governor == "" {
		return "", false
	}

	return governor, true
}
