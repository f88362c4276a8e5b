package timegrid

import (
	"errors"
	"time"

	"clinicdesk/pkg/model"
)

// ErrInvalidView is returned for a view outside {day, week, month}.
var ErrInvalidView = errors.New("invalid calendar view")

// Settings describes the clinic's operating grid. Minutes are offsets from
// local midnight; DayEndMin is exclusive.
type Settings struct {
	DayStartMin int
	DayEndMin   int
	SlotMinutes int
	WeekStart   time.Weekday
	Location    *time.Location
}

const (
	slotLabelFormat = "15:04"
	dayLabelFormat  = "Mon Jan 2"
)

// ParseView maps a wire value onto a View.
func ParseView(s string) (model.View, error) {
	switch model.View(s) {
	case model.ViewDay:
		return model.ViewDay, nil
	case model.ViewWeek:
		return model.ViewWeek, nil
	case model.ViewMonth:
		return model.ViewMonth, nil
	default:
		return "", ErrInvalidView
	}
}

// CellsFor produces the ordered visible cells for an anchor date at a zoom
// level. Total for any valid date; the only error is an unknown view.
//
//   - day: one cell per operating-hours slot on the anchor's calendar day
//   - week: the 7 days of the week containing the anchor (first day per
//     Settings.WeekStart), each crossed with the day-view slot rows
//   - month: one cell per day of the anchor's month, padded with leading and
//     trailing adjacent-month days so every week row has 7 cells
func CellsFor(anchor time.Time, view model.View, s Settings) ([]model.Cell, error) {
	switch view {
	case model.ViewDay:
		return dayCells(startOfDay(anchor, s.Location), s), nil
	case model.ViewWeek:
		return weekCells(anchor, s), nil
	case model.ViewMonth:
		return monthCells(anchor, s), nil
	default:
		return nil, ErrInvalidView
	}
}

// VisibleRange is the half-open absolute time range covered by the cells of
// CellsFor with the same arguments. Used to scope booking range queries.
func VisibleRange(anchor time.Time, view model.View, s Settings) (time.Time, time.Time, error) {
	cells, err := CellsFor(anchor, view, s)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return cells[0].Start, cells[len(cells)-1].End, nil
}

func dayCells(midnight time.Time, s Settings) []model.Cell {
	var cells []model.Cell
	for offset := s.DayStartMin; offset < s.DayEndMin; offset += s.SlotMinutes {
		start := midnight.Add(time.Duration(offset) * time.Minute)
		end := midnight.Add(time.Duration(min(offset+s.SlotMinutes, s.DayEndMin)) * time.Minute)
		cells = append(cells, model.Cell{
			Start: start,
			End:   end,
			Label: start.Format(slotLabelFormat),
		})
	}
	return cells
}

func weekCells(anchor time.Time, s Settings) []model.Cell {
	day := startOfWeek(anchor, s)
	var cells []model.Cell
	for i := 0; i < 7; i++ {
		cells = append(cells, dayCells(day, s)...)
		day = day.AddDate(0, 0, 1)
	}
	return cells
}

func monthCells(anchor time.Time, s Settings) []model.Cell {
	// Resolve the month in the clinic's location, like the other views.
	local := startOfDay(anchor, s.Location)
	firstOfMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.Location)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)

	day := startOfWeek(firstOfMonth, s)
	gridEnd := startOfWeek(lastOfMonth, s).AddDate(0, 0, 7)

	var cells []model.Cell
	for day.Before(gridEnd) {
		next := day.AddDate(0, 0, 1)
		cells = append(cells, model.Cell{
			Start: day,
			End:   next,
			Label: day.Format(dayLabelFormat),
		})
		day = next
	}
	return cells
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func startOfWeek(t time.Time, s Settings) time.Time {
	day := startOfDay(t, s.Location)
	back := (int(day.Weekday()) - int(s.WeekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}
