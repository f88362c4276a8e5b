package service

import (
	"context"
	"io"
	"testing"
	"time"

	apperrors "clinicdesk/pkg/errors"
	"clinicdesk/pkg/config"
	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/model"
	"clinicdesk/pkg/timegrid"
)

type mockBookingService struct {
	listRangeFunc func(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id string, reason string) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingService) ListRange(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error) {
	if m.listRangeFunc != nil {
		return m.listRangeFunc(ctx, from, to, kind)
	}
	return []*model.Booking{}, nil
}

func calendarConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:  logger.ERROR,
			Format: logger.JSON,
			Output: io.Discard,
		}),
		ClinicDayStart:    "09:00",
		ClinicDayEnd:      "18:00",
		ClinicSlotMinutes: 60,
		ClinicWeekStart:   "Sunday",
		Location:          time.UTC,
	}
}

func TestCellsDayView(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	anchor := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	cells, err := svc.Cells(context.Background(), anchor, model.ViewDay)
	if err != nil {
		t.Fatalf("expected day cells, got error: %v", err)
	}

	if len(cells) != 9 {
		t.Fatalf("expected 9 hourly cells for 09:00-18:00, got %d", len(cells))
	}
	if !cells[0].Start.Equal(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("first cell should start at 09:00, got %v", cells[0].Start)
	}
}

func TestCellsRejectsUnknownView(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	_, err := svc.Cells(context.Background(), time.Now(), "year")
	if err == nil {
		t.Fatal("expected error for unknown view")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidView {
		t.Errorf("expected INVALID_VIEW error, got: %v", err)
	}
}

func TestGridGroupsBookingsIntoCells(t *testing.T) {
	// One 90-minute operation starting 13:00 spans the 13:00 and 14:00 cells.
	operation := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		Kind:        model.KindOperation,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 90,
		Resources:   []string{"dr-miller", "room-1"},
		Status:      model.StatusConfirmed,
	}

	var sawFrom, sawTo time.Time
	bookings := &mockBookingService{
		listRangeFunc: func(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error) {
			sawFrom, sawTo = from, to
			return []*model.Booking{operation}, nil
		},
	}
	svc := NewCalendarService(bookings, calendarConfig())

	anchor := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	grid, err := svc.Grid(context.Background(), anchor, model.ViewDay)
	if err != nil {
		t.Fatalf("expected grid, got error: %v", err)
	}

	if !sawFrom.Equal(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)) ||
		!sawTo.Equal(time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("expected bookings fetched for visible window, got from=%v to=%v", sawFrom, sawTo)
	}

	for _, cell := range grid.Cells {
		hour := cell.Start.Hour()
		want := 0
		if hour == 13 || hour == 14 {
			want = 1
		}
		if len(cell.Bookings) != want {
			t.Errorf("cell %02d:00 expected %d booking(s), got %d", hour, want, len(cell.Bookings))
		}
	}
}

func TestNavigateAdvance(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	cursor := model.Cursor{
		Anchor: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		View:   model.ViewMonth,
	}

	next, err := svc.Navigate(context.Background(), NavigateRequest{
		Cursor: cursor,
		Action: timegrid.ActionAdvance,
	})
	if err != nil {
		t.Fatalf("expected advance to succeed, got: %v", err)
	}

	// Jan 31 + 1 month clamps to Feb 28 in a non-leap year.
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !next.Anchor.Equal(want) {
		t.Errorf("expected anchor %v, got %v", want, next.Anchor)
	}
	if next.View != model.ViewMonth {
		t.Errorf("advance must keep the view, got %q", next.View)
	}
}

func TestNavigateAdvanceBackward(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	next, err := svc.Navigate(context.Background(), NavigateRequest{
		Cursor: model.Cursor{
			Anchor: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			View:   model.ViewWeek,
		},
		Action: timegrid.ActionAdvance,
		Steps:  -1,
	})
	if err != nil {
		t.Fatalf("expected backward advance to succeed, got: %v", err)
	}

	want := time.Date(2025, 2, 26, 0, 0, 0, 0, time.UTC)
	if !next.Anchor.Equal(want) {
		t.Errorf("expected anchor %v, got %v", want, next.Anchor)
	}
}

func TestNavigateSwitchViewKeepsAnchor(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	anchor := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	next, err := svc.Navigate(context.Background(), NavigateRequest{
		Cursor: model.Cursor{Anchor: anchor, View: model.ViewMonth},
		Action: timegrid.ActionSwitchView,
		View:   model.ViewDay,
	})
	if err != nil {
		t.Fatalf("expected switch_view to succeed, got: %v", err)
	}

	if !next.Anchor.Equal(anchor) {
		t.Errorf("switch_view must keep the anchor, got %v", next.Anchor)
	}
	if next.View != model.ViewDay {
		t.Errorf("expected view day, got %q", next.View)
	}
}

func TestNavigateSwitchToUnknownView(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	_, err := svc.Navigate(context.Background(), NavigateRequest{
		Cursor: model.Cursor{Anchor: time.Now(), View: model.ViewDay},
		Action: timegrid.ActionSwitchView,
		View:   "quarter",
	})
	if err == nil {
		t.Fatal("expected error for unknown view")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidView {
		t.Errorf("expected INVALID_VIEW error, got: %v", err)
	}
}

func TestNavigateToday(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	next, err := svc.Navigate(context.Background(), NavigateRequest{
		Cursor: model.Cursor{
			Anchor: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
			View:   model.ViewWeek,
		},
		Action: timegrid.ActionToday,
	})
	if err != nil {
		t.Fatalf("expected today to succeed, got: %v", err)
	}

	now := time.Now().UTC()
	y, m, d := next.Anchor.Date()
	ny, nm, nd := now.Date()
	if y != ny || m != nm || d != nd {
		t.Errorf("expected anchor on today's date, got %v", next.Anchor)
	}
	if next.View != model.ViewWeek {
		t.Errorf("today must keep the view, got %q", next.View)
	}
}

func TestNavigateUnknownAction(t *testing.T) {
	svc := NewCalendarService(&mockBookingService{}, calendarConfig())

	_, err := svc.Navigate(context.Background(), NavigateRequest{
		Cursor: model.Cursor{Anchor: time.Now(), View: model.ViewDay},
		Action: "teleport",
	})
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}
