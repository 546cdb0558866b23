package services

import "serverbot/internal/models"

// Evaluate returns, in input order, the mount points whose used percentage is
// strictly greater than threshold. Samples with a zero total are skipped.
func Evaluate(samples []models.UsageSample, mountPoints []models.MountPoint, threshold float64) []models.Warning {
	var warnings []models.Warning
	for i, sample := range samples {
		percent, err := UsedPercent(sample)
		if err != nil {
			continue
		}
		if percent > threshold {
			warnings = append(warnings, models.Warning{
				MountPoint: mountPoints[i],
				Sample:     sample,
			})
		}
	}
	return warnings
}
