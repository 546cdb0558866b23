package services

import (
	"context"
	"fmt"
	"time"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sync/errgroup"
)

// StatFunc queries filesystem usage for one path
type StatFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// UsageInspector reads usage samples for a list of mount points
type UsageInspector interface {
	InspectAll(ctx context.Context, mountPoints []models.MountPoint) ([]models.UsageSample, error)
}

// MountInspectionError reports which mount point could not be queried
type MountInspectionError struct {
	MountPoint models.MountPoint
	Err        error
}

func (e *MountInspectionError) Error() string {
	return fmt.Sprintf("inspect mount point %s: %v", e.MountPoint, e.Err)
}

func (e *MountInspectionError) Unwrap() error {
	return e.Err
}

// DiskInspector queries mount points concurrently through gopsutil
type DiskInspector struct {
	stat    StatFunc
	timeout time.Duration
}

// NewDiskInspector returns an inspector backed by disk.UsageWithContext.
// A zero timeout disables the per-pass deadline.
func NewDiskInspector(timeout time.Duration) *DiskInspector {
	return NewDiskInspectorWithStat(disk.UsageWithContext, timeout)
}

// NewDiskInspectorWithStat returns an inspector using a custom stat function
func NewDiskInspectorWithStat(stat StatFunc, timeout time.Duration) *DiskInspector {
	return &DiskInspector{stat: stat, timeout: timeout}
}

// InspectAll returns one sample per mount point, in input order. The first
// failing mount point aborts the whole batch with a *MountInspectionError.
func (i *DiskInspector) InspectAll(ctx context.Context, mountPoints []models.MountPoint) ([]models.UsageSample, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	samples := make([]models.UsageSample, len(mountPoints))
	g, gctx := errgroup.WithContext(ctx)
	for idx, mountPoint := range mountPoints {
		g.Go(func() error {
			sample, err := i.inspect(gctx, mountPoint)
			if err != nil {
				return &MountInspectionError{MountPoint: mountPoint, Err: err}
			}
			samples[idx] = sample
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// inspect runs the stat call in its own goroutine so a hung filesystem
// cannot hold the pass past its deadline.
func (i *DiskInspector) inspect(ctx context.Context, mountPoint models.MountPoint) (models.UsageSample, error) {
	if err := ctx.Err(); err != nil {
		return models.UsageSample{}, err
	}

	type result struct {
		usage *disk.UsageStat
		err   error
	}
	done := make(chan result, 1)
	go func() {
		usage, err := i.stat(ctx, string(mountPoint))
		done <- result{usage: usage, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return models.UsageSample{}, errors.Wrap(ctx.Err(), "statfs")
	case r = <-done:
	}

	if r.err != nil {
		return models.UsageSample{}, r.err
	}
	if r.usage == nil {
		return models.UsageSample{}, errors.New("no usage reported")
	}

	// Free is the space available to unprivileged users
	available := r.usage.Free
	if available > r.usage.Total {
		available = r.usage.Total
	}
	return models.UsageSample{Total: r.usage.Total, Available: available}, nil
}
