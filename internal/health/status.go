package health

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status is the diagnostic payload served alongside the probes. It carries
// the service identity so operators can tell which instance answered.
type Status struct {
	Status      string          `json:"status"`
	Timestamp   time.Time       `json:"timestamp"`
	Service     string          `json:"service"`
	Version     string          `json:"version"`
	Environment string          `json:"environment"`
	Uptime      string          `json:"uptime"`
	GoVersion   string          `json:"go_version"`
	Checks      map[string]bool `json:"checks,omitempty"`
	System      *SystemStats    `json:"system,omitempty"`
}

// SystemStats is a point-in-time sample of process and host resource usage
type SystemStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapBytes     uint64  `json:"heap_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// CollectSystemStats samples runtime and host statistics. Host sampling
// failures leave the corresponding fields at zero rather than failing the
// snapshot.
func CollectSystemStats() *SystemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := &SystemStats{
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  ms.HeapAlloc,
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}

	return stats
}

// GoVersion reports the Go runtime version baked into the binary
func GoVersion() string {
	return runtime.Version()
}
