package service

import (
	"context"
	"errors"
	"time"

	bookingservice "clinicdesk/internal/bookings/service"
	"clinicdesk/pkg/config"
	apperrors "clinicdesk/pkg/errors"
	"clinicdesk/pkg/model"
	"clinicdesk/pkg/timegrid"
)

// GridCell is a calendar cell carrying the bookings that overlap it. A
// booking spanning several cells appears in each of them.
type GridCell struct {
	model.Cell
	Bookings []*model.Booking `json:"bookings"`
}

// CalendarGrid is a fully materialized view: the cursor that produced it,
// the visible window, and the populated cells.
type CalendarGrid struct {
	Cursor model.Cursor `json:"cursor"`
	From   time.Time    `json:"from"`
	To     time.Time    `json:"to"`
	Cells  []GridCell   `json:"cells"`
}

// NavigateRequest is a stateless navigation step: the client sends its
// current cursor plus an action and gets the next cursor back.
type NavigateRequest struct {
	Cursor model.Cursor `json:"cursor"`
	Action string       `json:"action"`
	Steps  int          `json:"steps,omitempty"`
	View   model.View   `json:"view,omitempty"`
}

type CalendarService interface {
	Cells(ctx context.Context, anchor time.Time, view model.View) ([]model.Cell, error)
	Grid(ctx context.Context, anchor time.Time, view model.View) (*CalendarGrid, error)
	Navigate(ctx context.Context, req NavigateRequest) (*model.Cursor, error)
}

type calendarService struct {
	bookings bookingservice.BookingService
	cfg      *config.Config
}

func NewCalendarService(bookings bookingservice.BookingService, cfg *config.Config) CalendarService {
	return &calendarService{
		bookings: bookings,
		cfg:      cfg,
	}
}

func (s *calendarService) Cells(ctx context.Context, anchor time.Time, view model.View) ([]model.Cell, error) {
	cells, err := timegrid.CellsFor(anchor, view, s.cfg.TimeGrid())
	if err != nil {
		return nil, s.mapViewErr(err, view)
	}
	return cells, nil
}

func (s *calendarService) Grid(ctx context.Context, anchor time.Time, view model.View) (*CalendarGrid, error) {
	settings := s.cfg.TimeGrid()

	cells, err := timegrid.CellsFor(anchor, view, settings)
	if err != nil {
		return nil, s.mapViewErr(err, view)
	}

	from, to, err := timegrid.VisibleRange(anchor, view, settings)
	if err != nil {
		return nil, s.mapViewErr(err, view)
	}

	bookings, err := s.bookings.ListRange(ctx, from, to, "")
	if err != nil {
		return nil, err
	}

	grid := &CalendarGrid{
		Cursor: model.Cursor{Anchor: anchor, View: view},
		From:   from,
		To:     to,
		Cells:  make([]GridCell, len(cells)),
	}
	for i, cell := range cells {
		grid.Cells[i] = GridCell{Cell: cell, Bookings: overlapping(bookings, cell)}
	}

	s.cfg.Log.Debug("Calendar grid built",
		"view", view,
		"anchor", anchor,
		"cells", len(grid.Cells),
		"bookings", len(bookings),
	)
	return grid, nil
}

func (s *calendarService) Navigate(ctx context.Context, req NavigateRequest) (*model.Cursor, error) {
	var (
		next model.Cursor
		err  error
	)

	switch req.Action {
	case timegrid.ActionAdvance:
		steps := req.Steps
		if steps == 0 {
			steps = 1
		}
		next, err = timegrid.Advance(req.Cursor, steps)

	case timegrid.ActionSwitchView:
		next, err = timegrid.SwitchView(req.Cursor, req.View)

	case timegrid.ActionToday:
		next = timegrid.JumpToToday(req.Cursor, time.Now(), s.cfg.Location)

	default:
		return nil, apperrors.InvalidInput("Unknown navigation action: " + req.Action)
	}

	if err != nil {
		view := req.Cursor.View
		if req.Action == timegrid.ActionSwitchView {
			view = req.View
		}
		return nil, s.mapViewErr(err, view)
	}

	return &next, nil
}

func (s *calendarService) mapViewErr(err error, view model.View) error {
	if errors.Is(err, timegrid.ErrInvalidView) {
		return apperrors.InvalidView(string(view))
	}
	return apperrors.Internal("Calendar computation failed", err)
}

func overlapping(bookings []*model.Booking, cell model.Cell) []*model.Booking {
	matched := make([]*model.Booking, 0)
	for _, b := range bookings {
		if b.Start.Before(cell.End) && cell.Start.Before(b.End()) {
			matched = append(matched, b)
		}
	}
	return matched
}
