package services

import (
	"fmt"
	"math"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
)

// ErrInvalidUsageSample is returned for samples that report a total size of zero
var ErrInvalidUsageSample = errors.New("invalid usage sample: total size is zero")

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// UsedPercent returns the share of the mount point that is not available, 0-100
func UsedPercent(sample models.UsageSample) (float64, error) {
	if sample.Total == 0 {
		return 0, ErrInvalidUsageSample
	}
	if sample.Available >= sample.Total {
		return 0, nil
	}
	used := sample.Total - sample.Available
	return float64(used) / float64(sample.Total) * 100, nil
}

// RoundPercent rounds half up to the nearest whole percent
func RoundPercent(percent float64) int {
	return int(math.Floor(percent + 0.5))
}

// FormatBytes renders a byte count in binary units with one decimal place, e.g. "1.2 GB"
func FormatBytes(b uint64) string {
	value := float64(b)
	unit := 0
	// Compare the rounded value so 1048575 B reads "1.0 MB", not "1024.0 KB"
	for roundTenth(value) >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", roundTenth(value), byteUnits[unit])
}

func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// FormatUsage renders one Slack line describing a mount point's usage
func FormatUsage(sample models.UsageSample, mountPoint models.MountPoint) (string, error) {
	percent, err := UsedPercent(sample)
	if err != nil {
		return "", errors.Wrapf(err, "format %s", mountPoint)
	}
	return fmt.Sprintf("*%s*: %d%% full, %s left", mountPoint, RoundPercent(percent), FormatBytes(sample.Available)), nil
}

// ValidateSamples returns the aggregated ErrInvalidUsageSample errors for every
// degenerate sample, or nil when all samples can be evaluated.
func ValidateSamples(samples []models.UsageSample, mountPoints []models.MountPoint) error {
	var result *multierror.Error
	for i, sample := range samples {
		if sample.Total == 0 {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidUsageSample, "mount point %s", mountPoints[i]))
		}
	}
	return result.ErrorOrNil()
}

// ToDiskStatus converts a sample into its JSON view
func ToDiskStatus(sample models.UsageSample, mountPoint models.MountPoint) models.DiskStatus {
	status := models.DiskStatus{
		Path:           string(mountPoint),
		TotalBytes:     sample.Total,
		AvailableBytes: sample.Available,
		TotalGB:        float64(sample.Total) / GB,
		AvailableGB:    float64(sample.Available) / GB,
		Total:          humanize.IBytes(sample.Total),
		Available:      humanize.IBytes(sample.Available),
	}
	if percent, err := UsedPercent(sample); err == nil {
		status.UsagePercent = percent
		status.Valid = true
	}
	return status
}
