package services

import (
	"sync"
	"time"

	"serverbot/internal/models"
)

// CheckHistory keeps the most recent monitoring passes in memory.
// Nothing is persisted across restarts.
type CheckHistory struct {
	mu            sync.RWMutex
	records       []models.CheckRecord
	maxDataPoints int
}

// NewCheckHistory keeps at most maxDataPoints records (60 when maxDataPoints <= 0)
func NewCheckHistory(maxDataPoints int) *CheckHistory {
	if maxDataPoints <= 0 {
		maxDataPoints = 60
	}
	return &CheckHistory{
		records:       []models.CheckRecord{},
		maxDataPoints: maxDataPoints,
	}
}

// Add appends a record, dropping the oldest once the limit is reached
func (h *CheckHistory) Add(record models.CheckRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, record)
	if len(h.records) > h.maxDataPoints {
		h.records = h.records[len(h.records)-h.maxDataPoints:]
	}
}

// Window returns the records newer than now-duration, oldest first
func (h *CheckHistory) Window(duration time.Duration) []models.CheckRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cutoffTime := time.Now().Add(-duration)
	filtered := []models.CheckRecord{}
	for _, r := range h.records {
		if r.Timestamp.After(cutoffTime) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Latest returns the most recent record, or nil when no pass has run yet
func (h *CheckHistory) Latest() *models.CheckRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.records) == 0 {
		return nil
	}
	latest := h.records[len(h.records)-1]
	return &latest
}
