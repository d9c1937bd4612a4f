package calendar

import (
	"context"
	"testing"
	"time"

	"curriculum-push/internal/models"
	"curriculum-push/internal/models/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionAt(t *testing.T) {
	cal, err := NewTermCalendar(config.CalendarConfig{TermStart: "2024-09-02", Timezone: "Europe/Moscow"})
	require.NoError(t, err)
	msk := cal.loc

	tests := []struct {
		name string
		at   time.Time
		want models.Position
	}{
		{name: "first monday", at: time.Date(2024, 9, 2, 9, 0, 0, 0, msk), want: models.Position{Period: 1, Week: 1}},
		{name: "first sunday", at: time.Date(2024, 9, 8, 23, 59, 0, 0, msk), want: models.Position{Period: 1, Week: 7}},
		{name: "second monday", at: time.Date(2024, 9, 9, 0, 0, 0, 0, msk), want: models.Position{Period: 2, Week: 1}},
		{name: "week five wednesday", at: time.Date(2024, 10, 2, 12, 0, 0, 0, msk), want: models.Position{Period: 5, Week: 3}},
		{name: "before term", at: time.Date(2024, 8, 30, 12, 0, 0, 0, msk), want: models.Position{Period: 1, Week: 5}},
		{name: "utc evening is next day in moscow", at: time.Date(2024, 9, 8, 22, 30, 0, 0, time.UTC), want: models.Position{Period: 2, Week: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.PositionAt(tt.at))
		})
	}
}

func TestCurrentUsesClock(t *testing.T) {
	cal, err := NewTermCalendar(config.CalendarConfig{TermStart: "2024-09-02", Timezone: "UTC"})
	require.NoError(t, err)

	cal.WithClock(func() time.Time { return time.Date(2024, 9, 17, 10, 0, 0, 0, time.UTC) })

	pos, err := cal.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Position{Period: 3, Week: 2}, pos)
}

func TestNewTermCalendarErrors(t *testing.T) {
	_, err := NewTermCalendar(config.CalendarConfig{TermStart: "bad", Timezone: "UTC"})
	assert.Error(t, err)

	_, err = NewTermCalendar(config.CalendarConfig{TermStart: "2024-09-02", Timezone: "Nowhere/City"})
	assert.Error(t, err)
}

func TestNewTermCalendarRequiresMonday(t *testing.T) {
	_, err := NewTermCalendar(config.CalendarConfig{TermStart: "2024-09-04", Timezone: "UTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wednesday")
}

func TestPeriodRollsOverOnMonday(t *testing.T) {
	cal, err := NewTermCalendar(config.CalendarConfig{TermStart: "2024-09-02", Timezone: "UTC"})
	require.NoError(t, err)

	sunday := cal.PositionAt(time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC))
	monday := cal.PositionAt(time.Date(2024, 9, 9, 12, 0, 0, 0, time.UTC))
	wednesday := cal.PositionAt(time.Date(2024, 9, 11, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, models.Position{Period: 1, Week: 7}, sunday)
	assert.Equal(t, models.Position{Period: 2, Week: 1}, monday)
	assert.Equal(t, models.Position{Period: 2, Week: 3}, wednesday)
	assert.True(t, sunday.Before(monday))
}
