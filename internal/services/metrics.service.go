package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const GB = 1024 * 1024 * 1024

// GetCPUUsage returns CPU usage percentage and load averages
func GetCPUUsage(ctx context.Context, logger *zap.Logger) (*models.CPUStatus, error) {
	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(percentage) == 0 {
		return nil, errors.New("no CPU usage reported")
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		logger.Warn("Could not get per-core CPU usage", zap.Error(err))
		perCore = nil
	}

	coreCount, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		logger.Warn("Could not get CPU core count", zap.Error(err))
		coreCount = 0
	}

	status := &models.CPUStatus{
		UsagePercent: percentage[0],
		PerCore:      perCore,
		CoreCount:    coreCount,
	}

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		logger.Warn("Could not get load averages", zap.Error(err))
	} else {
		status.Load1, status.Load5, status.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	return status, nil
}

// GetMemoryUsage returns memory usage information
func GetMemoryUsage(ctx context.Context) (*models.MemoryStatus, error) {
	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return &models.MemoryStatus{
		TotalGB:      float64(virtualMemory.Total) / GB,
		UsedGB:       float64(virtualMemory.Used) / GB,
		AvailableGB:  float64(virtualMemory.Available) / GB,
		UsagePercent: virtualMemory.UsedPercent,
	}, nil
}

// GetHostLoad returns CPU, memory and the topN busiest processes
func GetHostLoad(ctx context.Context, topN int, logger *zap.Logger) (*models.HostLoad, error) {
	cpuStatus, err := GetCPUUsage(ctx, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get CPU usage")
	}

	memStatus, err := GetMemoryUsage(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get memory usage")
	}

	top, err := GetTopProcesses(ctx, topN)
	if err != nil {
		logger.Warn("Could not list processes", zap.Error(err))
		top = nil
	}

	return &models.HostLoad{
		CPU:          cpuStatus,
		Memory:       memStatus,
		TopProcesses: top,
		Timestamp:    time.Now(),
	}, nil
}

// HostStats serves host load for the "info load" reply and the HTTP surface
type HostStats struct {
	cache   *LoadCache
	loadURL string
}

// NewHostStats caches host load for ttl; loadURL, when set, is appended to the summary
func NewHostStats(ttl time.Duration, topN int, loadURL string, logger *zap.Logger) *HostStats {
	return &HostStats{
		cache: NewLoadCache(ttl, func(ctx context.Context) (*models.HostLoad, error) {
			return GetHostLoad(ctx, topN, logger)
		}),
		loadURL: loadURL,
	}
}

// Load returns the cached host load, refreshing it when stale
func (h *HostStats) Load(ctx context.Context) (*models.HostLoad, error) {
	return h.cache.Get(ctx)
}

// LoadSummary renders the host load as a Slack message
func (h *HostStats) LoadSummary(ctx context.Context) (string, error) {
	hostLoad, err := h.Load(ctx)
	if err != nil {
		return "", err
	}
	return FormatHostLoad(hostLoad, h.loadURL), nil
}

// FormatHostLoad renders host load as Slack text
func FormatHostLoad(hostLoad *models.HostLoad, loadURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*CPU*: %d%% (%d cores, load %.2f %.2f %.2f)\n",
		RoundPercent(hostLoad.CPU.UsagePercent), hostLoad.CPU.CoreCount,
		hostLoad.CPU.Load1, hostLoad.CPU.Load5, hostLoad.CPU.Load15)
	fmt.Fprintf(&b, "*RAM*: %d%% used, %.1f GB available of %.1f GB",
		RoundPercent(hostLoad.Memory.UsagePercent), hostLoad.Memory.AvailableGB, hostLoad.Memory.TotalGB)

	if len(hostLoad.TopProcesses) > 0 {
		b.WriteString("\n*Top processes*:")
		for _, p := range hostLoad.TopProcesses {
			owner := ""
			if p.Username != "" {
				owner = " (" + p.Username + ")"
			}
			fmt.Fprintf(&b, "\n`%s`%s: %.1f%% CPU, %.1f%% RAM", p.Name, owner, p.CPUPercent, p.MemPercent)
		}
	}

	if loadURL != "" {
		fmt.Fprintf(&b, "\nVisit this link for CPU and RAM use: %s", loadURL)
	}
	return b.String()
}
