package tools

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
)

func TestGetSystemStats(t *testing.T) {
	stats, err := GetSystemStats(context.Background())
	if err != nil {
		t.Fatalf("GetSystemStats: %v", err)
	}

	if stats.CPUPercent < 0 || stats.CPUPercent > 100 {
		t.Errorf("cpu_percent out of range: %v", stats.CPUPercent)
	}
	if stats.MemoryPercent < 0 || stats.MemoryPercent > 100 {
		t.Errorf("memory_percent out of range: %v", stats.MemoryPercent)
	}
	if stats.MemoryTotalGB <= 0 {
		t.Errorf("memory_total_gb must be positive: %v", stats.MemoryTotalGB)
	}
	if stats.MemoryUsedGB > stats.MemoryTotalGB {
		t.Errorf("used %v exceeds total %v", stats.MemoryUsedGB, stats.MemoryTotalGB)
	}
}

func TestSystemStatsJSONKeys(t *testing.T) {
	var decoded map[string]float64
	if err := json.Unmarshal([]byte(SystemStats{}.JSON()), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, key := range []string{"cpu_percent", "memory_percent", "memory_available_gb", "memory_total_gb", "memory_used_gb"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if len(decoded) != 5 {
		t.Errorf("expected 5 keys, got %d", len(decoded))
	}
}

func TestMoscowTime(t *testing.T) {
	got, err := MoscowTime()
	if err != nil {
		t.Fatalf("MoscowTime: %v", err)
	}

	// e.g. "2024-01-15 12:34:56 MSK"
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \S+$`)
	if !pattern.MatchString(got) {
		t.Errorf("unexpected time format: %q", got)
	}
}
