package timegrid

import (
	"time"

	"clinicdesk/pkg/model"
)

// Navigation actions accepted over the wire.
const (
	ActionAdvance    = "advance"
	ActionSwitchView = "switch_view"
	ActionToday      = "today"
)

// Advance moves the cursor by n units of its current view: n days, n weeks,
// or n calendar months. The view is unchanged. For months the day-of-month
// is clamped to the target month's length, so advancing from Jan 31 lands
// on Feb 28/29 rather than overflowing into March.
func Advance(c model.Cursor, n int) (model.Cursor, error) {
	switch c.View {
	case model.ViewDay:
		c.Anchor = c.Anchor.AddDate(0, 0, n)
	case model.ViewWeek:
		c.Anchor = c.Anchor.AddDate(0, 0, 7*n)
	case model.ViewMonth:
		c.Anchor = addMonthsClamped(c.Anchor, n)
	default:
		return model.Cursor{}, ErrInvalidView
	}
	return c, nil
}

// SwitchView changes only the zoom level; the anchor is preserved so the
// same point in time stays visible at the new granularity.
func SwitchView(c model.Cursor, view model.View) (model.Cursor, error) {
	switch view {
	case model.ViewDay, model.ViewWeek, model.ViewMonth:
		c.View = view
		return c, nil
	default:
		return model.Cursor{}, ErrInvalidView
	}
}

// JumpToToday re-anchors the cursor on the current date in the given
// location, keeping the view.
func JumpToToday(c model.Cursor, now time.Time, loc *time.Location) model.Cursor {
	c.Anchor = startOfDay(now, loc)
	return c
}

func addMonthsClamped(t time.Time, n int) time.Time {
	// Normalize via the first of the month, then clamp the day.
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := min(t.Day(), daysInMonth(target.Year(), target.Month(), t.Location()))
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, loc).AddDate(0, 1, -1).Day()
}
