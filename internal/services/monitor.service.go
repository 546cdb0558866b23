package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const usagePreamble = "Current disk usage of file systems I am tracking:"

// MonitorSettings is the fixed monitoring configuration
type MonitorSettings struct {
	MountPoints      []models.MountPoint
	WarningThreshold float64
}

// DiskMonitorDeps are the collaborators of a DiskMonitor. Publisher and Telemetry may be nil.
type DiskMonitorDeps struct {
	Inspector  UsageInspector
	Dispatcher *AlertDispatcher
	Scheduler  *Scheduler
	History    *CheckHistory
	Publisher  RecordPublisher
	Telemetry  *Telemetry
	Logger     *zap.Logger
}

// DiskMonitor runs the inspect → evaluate → dispatch pipeline, on a schedule or on demand
type DiskMonitor struct {
	settings   MonitorSettings
	inspector  UsageInspector
	dispatcher *AlertDispatcher
	scheduler  *Scheduler
	history    *CheckHistory
	publisher  RecordPublisher
	telemetry  *Telemetry
	logger     *zap.Logger
	now        func() time.Time

	mu          sync.RWMutex
	destination models.ChannelDestination
}

// NewDiskMonitor creates a monitor. The mount point list is copied.
func NewDiskMonitor(settings MonitorSettings, deps DiskMonitorDeps) *DiskMonitor {
	mounts := make([]models.MountPoint, len(settings.MountPoints))
	copy(mounts, settings.MountPoints)
	settings.MountPoints = mounts

	history := deps.History
	if history == nil {
		history = NewCheckHistory(0)
	}

	return &DiskMonitor{
		settings:   settings,
		inspector:  deps.Inspector,
		dispatcher: deps.Dispatcher,
		scheduler:  deps.Scheduler,
		history:    history,
		publisher:  deps.Publisher,
		telemetry:  deps.Telemetry,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Start verifies every mount point can be inspected and schedules recurring checks
// that alert destination. An empty destination disables monitoring and returns a nil job.
func (m *DiskMonitor) Start(ctx context.Context, destination models.ChannelDestination) (*Job, error) {
	if destination == "" {
		m.logger.Warn("Could not find channel in which to post alerts. Disk monitoring will not happen.")
		return nil, nil
	}
	if m.scheduler == nil {
		return nil, errors.New("no scheduler configured")
	}

	// Check if mount points are intact before committing to a schedule
	if _, err := m.inspector.InspectAll(ctx, m.settings.MountPoints); err != nil {
		return nil, errors.Wrap(err, "verify mount points")
	}

	m.mu.Lock()
	m.destination = destination
	m.mu.Unlock()

	job := m.scheduler.Start(func(ctx context.Context, fireAt time.Time) error {
		_, err := m.RunCheck(ctx, destination, models.TriggerSchedule)
		return err
	})
	m.logger.Info("Disk monitoring started",
		zap.Strings("mount_points", m.mountPointStrings()),
		zap.Float64("threshold", m.settings.WarningThreshold),
		zap.Time("next_run", job.NextRun()))
	return job, nil
}

// Destination returns the alert destination, or "" when monitoring is disabled
func (m *DiskMonitor) Destination() models.ChannelDestination {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.destination
}

// RunCheck performs one full pass and alerts destination if any mount point is over
// the threshold. An inspection failure is returned and no alert is sent.
func (m *DiskMonitor) RunCheck(ctx context.Context, destination models.ChannelDestination, trigger string) (models.CheckRecord, error) {
	record := models.CheckRecord{
		Timestamp: m.now(),
		Trigger:   trigger,
	}

	samples, warnings, err := m.pass(ctx)
	if err != nil {
		record.Error = err.Error()
		m.finish(record)
		return record, err
	}

	record.Disks = m.statuses(samples)
	for _, w := range warnings {
		if line, err := FormatUsage(w.Sample, w.MountPoint); err == nil {
			record.Warnings = append(record.Warnings, line)
		}
	}
	record.Alerted = m.dispatcher.SendIfWarnings(ctx, warnings, destination)
	m.finish(record)
	return record, nil
}

// UsageMessage describes the usage of every monitored mount point
func (m *DiskMonitor) UsageMessage(ctx context.Context) (string, error) {
	samples, err := m.inspector.InspectAll(ctx, m.settings.MountPoints)
	if err != nil {
		return "", err
	}

	lines := []string{usagePreamble}
	for i, sample := range samples {
		line, err := FormatUsage(sample, m.settings.MountPoints[i])
		if err != nil {
			m.logger.Warn("Omitting mount point from usage message", zap.Error(err))
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// CheckMessage returns the warning message a scheduled pass would send, or ""
func (m *DiskMonitor) CheckMessage(ctx context.Context) (string, error) {
	_, warnings, err := m.pass(ctx)
	if err != nil {
		return "", err
	}
	return m.dispatcher.ComposeWarningMessage(warnings), nil
}

// Inspect returns the current usage of every monitored mount point
func (m *DiskMonitor) Inspect(ctx context.Context) ([]models.DiskStatus, error) {
	samples, err := m.inspector.InspectAll(ctx, m.settings.MountPoints)
	if err != nil {
		return nil, err
	}
	return m.statuses(samples), nil
}

// History returns the in-memory record of past passes
func (m *DiskMonitor) History() *CheckHistory {
	return m.history
}

// pass inspects every mount point and evaluates the threshold. Degenerate samples
// are logged and left out; the remaining mount points are still evaluated.
func (m *DiskMonitor) pass(ctx context.Context) ([]models.UsageSample, []models.Warning, error) {
	samples, err := m.inspector.InspectAll(ctx, m.settings.MountPoints)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateSamples(samples, m.settings.MountPoints); err != nil {
		m.logger.Warn("Omitting mount points with invalid usage samples", zap.Error(err))
	}
	for i, sample := range samples {
		percent, err := UsedPercent(sample)
		if err != nil {
			m.telemetry.invalidSample()
			continue
		}
		m.telemetry.observeUsage(string(m.settings.MountPoints[i]), percent)
	}

	return samples, Evaluate(samples, m.settings.MountPoints, m.settings.WarningThreshold), nil
}

func (m *DiskMonitor) statuses(samples []models.UsageSample) []models.DiskStatus {
	statuses := make([]models.DiskStatus, 0, len(samples))
	for i, sample := range samples {
		statuses = append(statuses, ToDiskStatus(sample, m.settings.MountPoints[i]))
	}
	return statuses
}

func (m *DiskMonitor) finish(record models.CheckRecord) {
	m.history.Add(record)
	if m.publisher != nil {
		m.publisher.Publish(record)
	}
	m.telemetry.checkFinished(record.Failed())
}

func (m *DiskMonitor) mountPointStrings() []string {
	out := make([]string, len(m.settings.MountPoints))
	for i, mp := range m.settings.MountPoints {
		out[i] = string(mp)
	}
	return out
}
