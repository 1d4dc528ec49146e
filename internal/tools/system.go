// Package tools implements the non-retrieval assistant tools: host load
// statistics and Moscow wall-clock time.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// cpuSampleInterval trades answer latency for a meaningful CPU reading;
// a zero interval would return the delta since the previous call.
const cpuSampleInterval = 700 * time.Millisecond

const bytesPerGB = 1 << 30

// SystemStats is the host load snapshot returned by the stats tool.
// Field names are stable: they feed the LLM prompt as JSON.
type SystemStats struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	MemoryAvailableGB float64 `json:"memory_available_gb"`
	MemoryTotalGB     float64 `json:"memory_total_gb"`
	MemoryUsedGB      float64 `json:"memory_used_gb"`
}

// GetSystemStats samples CPU over cpuSampleInterval and reads virtual memory.
func GetSystemStats(ctx context.Context) (SystemStats, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return SystemStats{}, fmt.Errorf("cpu stats: %w", err)
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return SystemStats{}, fmt.Errorf("memory stats: %w", err)
	}

	return SystemStats{
		CPUPercent:        round1(cpuPercent),
		MemoryPercent:     round1(vm.UsedPercent),
		MemoryAvailableGB: round2(float64(vm.Available) / bytesPerGB),
		MemoryTotalGB:     round2(float64(vm.Total) / bytesPerGB),
		MemoryUsedGB:      round2(float64(vm.Used) / bytesPerGB),
	}, nil
}

// JSON renders the snapshot for the tool-data prompt.
func (s SystemStats) JSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
