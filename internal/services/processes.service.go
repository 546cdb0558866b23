package services

import (
	"context"
	"sort"

	"serverbot/internal/models"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessWithScore helps with sorting
type ProcessWithScore struct {
	models.ProcessStatus
	Score float64
}

// GetTopProcesses returns the limit processes ranked by CPU + memory usage
// Pipeline: Collect → Sort → Limit
func GetTopProcesses(ctx context.Context, limit int) ([]models.ProcessStatus, error) {
	if limit <= 0 {
		return nil, nil
	}

	// COLLECT
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	processes := make([]ProcessWithScore, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Process exited or is not readable
			continue
		}
		cpuPercent, _ := p.CPUPercentWithContext(ctx)
		memPercent, _ := p.MemoryPercentWithContext(ctx)
		username, _ := p.UsernameWithContext(ctx)

		processes = append(processes, ProcessWithScore{
			ProcessStatus: models.ProcessStatus{
				PID:        p.Pid,
				Name:       name,
				Username:   username,
				CPUPercent: cpuPercent,
				MemPercent: memPercent,
			},
			Score: cpuPercent + float64(memPercent),
		})
	}

	return rankProcesses(processes, limit), nil
}

// rankProcesses sorts by score descending and keeps the first limit entries
func rankProcesses(processes []ProcessWithScore, limit int) []models.ProcessStatus {
	// SORT
	sort.SliceStable(processes, func(i, j int) bool {
		return processes[i].Score > processes[j].Score
	})

	// LIMIT
	if len(processes) > limit {
		processes = processes[:limit]
	}

	result := make([]models.ProcessStatus, 0, len(processes))
	for _, p := range processes {
		result = append(result, p.ProcessStatus)
	}
	return result
}
