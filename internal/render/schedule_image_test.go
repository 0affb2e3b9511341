package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilecare/clinic-scheduler/internal/model"
)

func TestWeekImageProducesDecodablePNG(t *testing.T) {
	weekStart := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	slots := []*model.Slot{
		{
			StartsAt:    weekStart.Add(9 * time.Hour),
			EndsAt:      weekStart.Add(9*time.Hour + 30*time.Minute),
			IsAvailable: true,
		},
		{
			StartsAt:    weekStart.AddDate(0, 0, 2).Add(14 * time.Hour),
			EndsAt:      weekStart.AddDate(0, 0, 2).Add(14*time.Hour + 30*time.Minute),
			IsAvailable: false,
		},
	}

	data, err := WeekImage(weekStart, slots)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1400, img.Bounds().Dx())
	assert.Equal(t, 900, img.Bounds().Dy())
}

func TestWeekImageEmptyWeek(t *testing.T) {
	weekStart := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	data, err := WeekImage(weekStart, nil)
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestHourBoundsWidenForOffHoursSlots(t *testing.T) {
	weekStart := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	slots := []*model.Slot{
		{StartsAt: weekStart.Add(6 * time.Hour), EndsAt: weekStart.Add(6*time.Hour + 30*time.Minute)},
		{StartsAt: weekStart.Add(21 * time.Hour), EndsAt: weekStart.Add(21*time.Hour + 30*time.Minute)},
	}

	minHour, maxHour := hourBounds(slots)
	assert.Equal(t, 6, minHour)
	assert.Equal(t, 21, maxHour)
}
