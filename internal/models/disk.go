package models

// MountPoint is a filesystem path whose usage is monitored
type MountPoint string

// UsageSample is one reading of a mount point's capacity in bytes.
// Available never exceeds Total.
type UsageSample struct {
	Total     uint64 `json:"total"`
	Available uint64 `json:"available"`
}

// Warning pairs a mount point with the sample that put it over the threshold
type Warning struct {
	MountPoint MountPoint  `json:"mount_point"`
	Sample     UsageSample `json:"sample"`
}

// DiskStatus represents detailed disk usage information
type DiskStatus struct {
	Path           string  `json:"path"`
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	TotalGB        float64 `json:"total_gb"`
	AvailableGB    float64 `json:"available_gb"`
	UsagePercent   float64 `json:"usage_percent"`
	Total          string  `json:"total"`     // Human-readable size like "12 GiB"
	Available      string  `json:"available"` // Human-readable size like "1.2 GiB"
	Valid          bool    `json:"valid"`
}
