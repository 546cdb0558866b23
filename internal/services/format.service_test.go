package services

import (
	"testing"

	"serverbot/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsedPercent(t *testing.T) {
	tests := []struct {
		name   string
		sample models.UsageSample
		want   float64
	}{
		{"half", models.UsageSample{Total: 100, Available: 50}, 50},
		{"almost full", models.UsageSample{Total: 100, Available: 5}, 95},
		{"full", models.UsageSample{Total: 100, Available: 0}, 100},
		{"empty", models.UsageSample{Total: 100, Available: 100}, 0},
		{"available above total", models.UsageSample{Total: 100, Available: 200}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UsedPercent(tt.sample)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}

	_, err := UsedPercent(models.UsageSample{Total: 0, Available: 0})
	assert.ErrorIs(t, err, ErrInvalidUsageSample)
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 85, RoundPercent(84.5))
	assert.Equal(t, 84, RoundPercent(84.49))
	assert.Equal(t, 0, RoundPercent(0))
	assert.Equal(t, 100, RoundPercent(99.5))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1288490189, "1.2 GB"},
		{1048575, "1.0 MB"},
		{1073741823, "1.0 GB"},
		{1023*1024 + 972, "1023.9 KB"},
		{1023*1024 + 1000, "1.0 MB"},
		{5 << 40, "5.0 TB"},
		{3 << 50, "3.0 PB"},
		{4096 << 50, "4096.0 PB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestFormatUsage(t *testing.T) {
	line, err := FormatUsage(models.UsageSample{Total: 100 << 30, Available: 10 << 30}, "/scratch")
	require.NoError(t, err)
	assert.Equal(t, "*/scratch*: 90% full, 10.0 GB left", line)

	// Same input, same output
	again, err := FormatUsage(models.UsageSample{Total: 100 << 30, Available: 10 << 30}, "/scratch")
	require.NoError(t, err)
	assert.Equal(t, line, again)

	_, err = FormatUsage(models.UsageSample{}, "/broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidUsageSample))
	assert.Contains(t, err.Error(), "/broken")
}

func TestValidateSamples(t *testing.T) {
	mounts := []models.MountPoint{"/a", "/b", "/c"}

	assert.NoError(t, ValidateSamples([]models.UsageSample{
		{Total: 1, Available: 1}, {Total: 2, Available: 0}, {Total: 3, Available: 2},
	}, mounts))

	err := ValidateSamples([]models.UsageSample{
		{Total: 0}, {Total: 2, Available: 0}, {Total: 0},
	}, mounts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUsageSample)
	assert.Contains(t, err.Error(), "/a")
	assert.Contains(t, err.Error(), "/c")
	assert.NotContains(t, err.Error(), "/b")
}

func TestToDiskStatus(t *testing.T) {
	status := ToDiskStatus(models.UsageSample{Total: 4 << 30, Available: 1 << 30}, "/data")
	assert.Equal(t, "/data", status.Path)
	assert.True(t, status.Valid)
	assert.InDelta(t, 75, status.UsagePercent, 1e-9)
	assert.InDelta(t, 4, status.TotalGB, 1e-9)
	assert.Equal(t, "4.0 GiB", status.Total)
	assert.Equal(t, "1.0 GiB", status.Available)

	invalid := ToDiskStatus(models.UsageSample{}, "/empty")
	assert.False(t, invalid.Valid)
	assert.Zero(t, invalid.UsagePercent)
}

func TestEvaluate(t *testing.T) {
	mounts := []models.MountPoint{"/a", "/b", "/c", "/d"}
	samples := []models.UsageSample{
		{Total: 100, Available: 5},  // 95%
		{Total: 100, Available: 15}, // exactly 85%
		{Total: 0, Available: 0},    // invalid
		{Total: 100, Available: 10}, // 90%
	}

	warnings := Evaluate(samples, mounts, 85)
	require.Len(t, warnings, 2)
	assert.Equal(t, models.MountPoint("/a"), warnings[0].MountPoint)
	assert.Equal(t, models.MountPoint("/d"), warnings[1].MountPoint)
	assert.Equal(t, samples[3], warnings[1].Sample)

	assert.Empty(t, Evaluate(samples, mounts, 100))
	assert.Empty(t, Evaluate(nil, nil, 0))
}

func TestEvaluateScenarioA(t *testing.T) {
	warnings := Evaluate([]models.UsageSample{
		{Total: 100, Available: 5},
		{Total: 100, Available: 50},
	}, []models.MountPoint{"/a", "/b"}, 85)

	require.Len(t, warnings, 1)
	assert.Equal(t, models.MountPoint("/a"), warnings[0].MountPoint)
}
