package models

import "time"

// HostLoad combines the host metrics shown by the "info load" reply
type HostLoad struct {
	CPU          *CPUStatus      `json:"cpu"`
	Memory       *MemoryStatus   `json:"memory"`
	TopProcesses []ProcessStatus `json:"top_processes,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}
