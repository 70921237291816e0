// Package tariff decides which rate applies at any instant and turns a
// check-in/check-out interval into a segmented cost breakdown.
package tariff

import (
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
)

// Calendar answers whether an instant is billed at the special rate. It holds
// no mutable state and is safe for concurrent use.
type Calendar struct {
	rush      []domain.RushWindow
	vacations []domain.VacationWindow
}

func NewCalendar(rush []domain.RushWindow, vacations []domain.VacationWindow) *Calendar {
	return &Calendar{rush: rush, vacations: vacations}
}

// IsSpecialRate reports whether t falls inside any active rush window (weekday
// match, half-open [from, to) time-of-day range) or any active vacation window
// (inclusive date-only range). Overlapping windows OR together.
func (c *Calendar) IsSpecialRate(t time.Time) bool {
	return c.inRushWindow(t) || c.inVacationWindow(t)
}

func (c *Calendar) inRushWindow(t time.Time) bool {
	weekDay := int(t.Weekday())
	hhmm := t.Format("15:04")

	for _, w := range c.rush {
		if !w.Active || w.WeekDay != weekDay {
			continue
		}
		// "HH:MM" compares correctly as a string in 24-hour form.
		if hhmm >= w.From && hhmm < w.To {
			return true
		}
	}

	return false
}

func (c *Calendar) inVacationWindow(t time.Time) bool {
	day := t.Format(time.DateOnly)

	for _, w := range c.vacations {
		if !w.Active {
			continue
		}
		if day >= w.From.Format(time.DateOnly) && day <= w.To.Format(time.DateOnly) {
			return true
		}
	}

	return false
}
