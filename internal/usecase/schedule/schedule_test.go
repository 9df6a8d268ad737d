package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commutecast/internal/domain/entity"
	"commutecast/internal/usecase/schedule"
)

func TestIsDue(t *testing.T) {
	eight := entity.DeliveryTime{Hour: 8, Minute: 0}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact minute", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), true},
		{"seconds ignored", time.Date(2024, 5, 1, 8, 0, 59, 999, time.UTC), true},
		{"one minute late", time.Date(2024, 5, 1, 8, 1, 0, 0, time.UTC), false},
		{"one minute early", time.Date(2024, 5, 1, 7, 59, 59, 0, time.UTC), false},
		{"same minute other hour", time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.IsDue(tt.now, eight))
		})
	}
}

func TestGate_ConvertsToLocation(t *testing.T) {
	gate, err := schedule.NewGate("Asia/Tokyo")
	require.NoError(t, err)

	// 23:30 UTC is 08:30 in Tokyo.
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	assert.True(t, gate.IsDue(now, entity.DeliveryTime{Hour: 8, Minute: 30}))
	assert.False(t, gate.IsDue(now, entity.DeliveryTime{Hour: 23, Minute: 30}))
}

func TestGate_DefaultsToUTC(t *testing.T) {
	gate, err := schedule.NewGate("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, gate.Location)

	var zero schedule.Gate
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2024, 5, 1, 17, 0, 0, 0, tokyo) // 08:00 UTC
	assert.True(t, zero.IsDue(now, entity.DeliveryTime{Hour: 8, Minute: 0}))
}

func TestNewGate_InvalidZone(t *testing.T) {
	_, err := schedule.NewGate("Mars/Olympus")
	assert.Error(t, err)
}
