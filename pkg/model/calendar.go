package model

import "time"

// View is the calendar zoom level.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// Cursor is a session-scoped calendar position: the anchor date and the
// zoom level looking at it. It is never persisted server-side; it travels
// with the request and the navigator returns the next one.
type Cursor struct {
	Anchor time.Time `json:"anchor"`
	View   View      `json:"view"`
}

// Cell is one calendar grid unit: an hour slot in day/week view, a whole
// day in month view. Bounds are absolute timestamps, half-open [Start, End).
type Cell struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Contains reports whether an instant falls inside the cell bounds.
func (c Cell) Contains(at time.Time) bool {
	return !at.Before(c.Start) && at.Before(c.End)
}
