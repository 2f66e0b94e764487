package services

import (
	"math"
	"time"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

// Calendar decides which day an instant belongs to. All check-in days are
// computed in one fixed location so that the stored day column is stable.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar returns a calendar in loc driven by the wall clock.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// WithClock returns a copy of the calendar that reads time from now.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant in the calendar's location.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// Today returns midnight of the current day.
func (c *Calendar) Today() time.Time { return c.DayOf(c.now()) }

// DayOf returns midnight of the day containing t.
func (c *Calendar) DayOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// ParseDay accepts a bare date (YYYY-MM-DD), taken as that calendar day, or
// an RFC 3339 timestamp, converted to the calendar before truncation.
func (c *Calendar) ParseDay(s string) (time.Time, error) {
	if d, err := time.ParseInLocation(repository.DayLayout, s, c.loc); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate.Wrap(err)
	}
	return c.DayOf(t), nil
}

// WeekStart returns the Monday that starts the week containing day.
func (c *Calendar) WeekStart(day time.Time) time.Time {
	day = c.DayOf(day)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeeklyProgress counts the distinct days of the current Monday-start week
// that have a check-in and compares them to the weekly target.
// A non-positive target is treated as 1.
func (c *Calendar) WeeklyProgress(checkIns []models.CheckIn, targetDays int) models.Progress {
	if targetDays <= 0 {
		targetDays = 1
	}

	today := c.Today()
	start := c.WeekStart(today)

	checked := make(map[time.Time]bool, len(checkIns))
	for _, ci := range checkIns {
		checked[c.DayOf(ci.Date)] = true
	}

	days := make([]models.ProgressDay, 7)
	actual := 0
	for i := range days {
		day := start.AddDate(0, 0, i)
		days[i] = models.ProgressDay{
			Date:      day,
			CheckedIn: checked[day],
			IsToday:   day.Equal(today),
		}
		if checked[day] {
			actual++
		}
	}

	percent := int(math.Round(float64(actual) / float64(targetDays) * 100))
	display := percent
	if display > 100 {
		display = 100
	}

	return models.Progress{
		WeekStart:      start,
		Actual:         actual,
		Target:         targetDays,
		Percent:        percent,
		DisplayPercent: display,
		Days:           days,
	}
}
