package models

import "time"

// Check triggers
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// CheckRecord stores the outcome of one monitoring pass
type CheckRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Trigger   string       `json:"trigger"`
	Disks     []DiskStatus `json:"disks,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
	Alerted   bool         `json:"alerted"`
	Error     string       `json:"error,omitempty"`
}

// Failed reports whether the pass could not inspect every mount point
func (r CheckRecord) Failed() bool {
	return r.Error != ""
}
