package calendar

import (
	"context"
	"fmt"
	"time"

	"curriculum-push/internal/models"
	"curriculum-push/internal/models/config"
)

// Resolver возвращает текущую учебную неделю и день недели.
type Resolver interface {
	Current(ctx context.Context) (models.Position, error)
}

// TermCalendar считает недели от понедельника первой учебной недели.
type TermCalendar struct {
	start time.Time
	loc   *time.Location
	now   func() time.Time
}

func NewTermCalendar(cfg config.CalendarConfig) (*TermCalendar, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	start, err := time.ParseInLocation(config.TermStartLayout, cfg.TermStart, loc)
	if err != nil {
		return nil, fmt.Errorf("parse term start %q: %w", cfg.TermStart, err)
	}
	if start.Weekday() != time.Monday {
		return nil, fmt.Errorf("term start %s is %s, want Monday", cfg.TermStart, start.Weekday())
	}

	return &TermCalendar{start: start, loc: loc, now: time.Now}, nil
}

// WithClock подменяет часы, нужно для тестов.
func (c *TermCalendar) WithClock(now func() time.Time) *TermCalendar {
	c.now = now
	return c
}

func (c *TermCalendar) Current(_ context.Context) (models.Position, error) {
	return c.PositionAt(c.now()), nil
}

// PositionAt переводит момент времени в (неделя семестра, день недели).
// До начала семестра неделя считается первой.
func (c *TermCalendar) PositionAt(t time.Time) models.Position {
	local := t.In(c.loc)

	// сравниваем по календарным дням, чтобы переход на летнее время не сдвигал неделю
	startDay := time.Date(c.start.Year(), c.start.Month(), c.start.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(startDay).Hours() / 24)

	period := 1
	if days > 0 {
		period = days/7 + 1
	}

	return models.Position{Period: period, Week: isoWeekday(local.Weekday())}
}

func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}
