package service

import (
	"context"
	"io"
	"testing"
	"time"

	"clinicdesk/internal/bookings/validator"
	"clinicdesk/pkg/client"
	"clinicdesk/pkg/config"
	mongotx "clinicdesk/pkg/db/mongo"
	apperrors "clinicdesk/pkg/errors"
	"clinicdesk/pkg/kafka"
	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockBookingRepository struct {
	createFunc                 func(ctx context.Context, booking *model.Booking) error
	findByIDFunc               func(ctx context.Context, id string) (*model.Booking, error)
	updateFunc                 func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	findByRangeFunc            func(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error)
	findByResourceAndRangeFunc func(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error)

	capturedBooking *model.Booking
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.capturedBooking = booking
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "507f1f77bcf86cd799439099"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	m.capturedBooking = booking
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockBookingRepository) FindByRange(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error) {
	if m.findByRangeFunc != nil {
		return m.findByRangeFunc(ctx, from, to, kind)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByResourceAndRange(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error) {
	if m.findByResourceAndRangeFunc != nil {
		return m.findByResourceAndRangeFunc(ctx, resourceID, from, to, excludeID)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockLockRepository struct {
	acquireFunc func(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error)

	acquired []string
	released []string
}

func (m *mockLockRepository) Acquire(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error) {
	if m.acquireFunc != nil {
		l, err := m.acquireFunc(ctx, lock)
		if err == nil {
			m.acquired = append(m.acquired, lock.ID)
		}
		return l, err
	}
	m.acquired = append(m.acquired, lock.ID)
	return lock, nil
}

func (m *mockLockRepository) Release(ctx context.Context, resourceID string) error {
	m.released = append(m.released, resourceID)
	return nil
}

type mockPatientDirectory struct {
	getByRefFunc func(ctx context.Context, ref string) (*client.PatientInfo, error)
}

func (m *mockPatientDirectory) GetByRef(ctx context.Context, ref string) (*client.PatientInfo, error) {
	if m.getByRefFunc != nil {
		return m.getByRefFunc(ctx, ref)
	}
	return &client.PatientInfo{Ref: ref, DisplayName: "Test Patient"}, nil
}

type mockEventPublisher struct {
	published []kafka.Message
}

func (m *mockEventPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:  logger.ERROR,
		Format: logger.JSON,
		Output: io.Discard,
	})
	return &config.Config{
		Log:                log,
		ChairResourceID:    "chair-1",
		FacilityResourceID: "facility",
		ResourceLockTTL:    10 * time.Second,
		ClinicDayStart:     "09:00",
		ClinicDayEnd:       "18:00",
		ClinicSlotMinutes:  60,
		ClinicWeekStart:    "Sunday",
		Location:           time.UTC,
	}
}

func newTestService(repo *mockBookingRepository, locks *mockLockRepository) (BookingService, *mockEventPublisher, *config.Config) {
	cfg := testConfig()
	events := &mockEventPublisher{}
	svc := NewBookingService(
		repo,
		locks,
		validator.NewBookingValidator(cfg.Log),
		&mockPatientDirectory{},
		events,
		cfg,
	)
	return svc, events, cfg
}

func duplicateKeyErr() error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000}},
	}
}

func TestCreateAppliesDefaultsAndPublishes(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	svc, events, _ := newTestService(repo, locks)

	booking := &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Label:       "Cleaning",
		Resources:   []string{"dr-miller"},
	}

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("expected create to succeed, got: %v", err)
	}

	if booking.Status != model.StatusConfirmed {
		t.Errorf("expected default status confirmed, got %q", booking.Status)
	}

	// Regular bookings implicitly occupy the chair; the list ends up sorted.
	want := []string{"chair-1", "dr-miller"}
	if len(booking.Resources) != len(want) {
		t.Fatalf("expected resources %v, got %v", want, booking.Resources)
	}
	for i := range want {
		if booking.Resources[i] != want[i] {
			t.Fatalf("expected resources %v, got %v", want, booking.Resources)
		}
	}

	if booking.PatientName != "Test Patient" {
		t.Errorf("expected patient name resolved from directory, got %q", booking.PatientName)
	}

	if len(locks.acquired) != 2 || len(locks.released) != 2 {
		t.Errorf("expected 2 locks acquired and released, got acquired=%v released=%v",
			locks.acquired, locks.released)
	}

	if len(events.published) != 1 {
		t.Fatalf("expected 1 event published, got %d", len(events.published))
	}
	if got := events.published[0].GetEventType(); got != kafka.EventBookingCreated {
		t.Errorf("expected event type %q, got %q", kafka.EventBookingCreated, got)
	}
}

func TestCreateBlockedOccupiesFacility(t *testing.T) {
	repo := &mockBookingRepository{}
	locks := &mockLockRepository{}
	svc, _, _ := newTestService(repo, locks)

	booking := &model.Booking{
		Kind:        model.KindBlocked,
		Start:       time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC),
		DurationMin: 60,
		Label:       "Staff meeting",
		Resources:   []string{"facility"},
	}

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("expected create to succeed, got: %v", err)
	}

	if len(booking.Resources) != 1 || booking.Resources[0] != "facility" {
		t.Errorf("expected facility resource only, got %v", booking.Resources)
	}
}

func TestCreateSharedResourceConflict(t *testing.T) {
	// An operation 13:00-14:30 holds dr-miller and room-1. A regular booking
	// at 13:30 that also needs room-1 must be rejected with the resource and
	// the blocking booking identified.
	operation := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		Kind:        model.KindOperation,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 90,
		PatientRef:  "pat-200",
		Resources:   []string{"dr-miller", "room-1"},
		Status:      model.StatusConfirmed,
	}

	repo := &mockBookingRepository{
		findByResourceAndRangeFunc: func(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error) {
			if resourceID == "room-1" {
				return []*model.Booking{operation}, nil
			}
			return nil, nil
		},
	}
	locks := &mockLockRepository{}
	svc, events, _ := newTestService(repo, locks)

	booking := &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 30, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"room-1"},
	}

	err := svc.Create(context.Background(), booking)
	if err == nil {
		t.Fatal("expected resource conflict, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
	if appErr.Details["resource"] != "room-1" {
		t.Errorf("expected conflicting resource room-1, got %v", appErr.Details["resource"])
	}

	if len(events.published) != 0 {
		t.Errorf("expected no events on conflict, got %d", len(events.published))
	}

	// Locks must not leak on the failure path.
	if len(locks.acquired) != len(locks.released) {
		t.Errorf("lock leak: acquired=%v released=%v", locks.acquired, locks.released)
	}
}

func TestCreateBackToBackDoesNotConflict(t *testing.T) {
	existing := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-200",
		Resources:   []string{"chair-1"},
		Status:      model.StatusConfirmed,
	}

	repo := &mockBookingRepository{
		findByResourceAndRangeFunc: func(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error) {
			if existing.Start.Before(to) && from.Before(existing.End()) {
				return []*model.Booking{existing}, nil
			}
			return nil, nil
		},
	}
	svc, _, _ := newTestService(repo, &mockLockRepository{})

	// Starts exactly when the existing booking ends.
	booking := &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 30, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
	}

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("back-to-back bookings must not conflict, got: %v", err)
	}
}

func TestCreatePastClosingTimeRejected(t *testing.T) {
	// The clinic closes at 18:00; an interval spilling past closing is a
	// validation failure, not a conflict.
	tests := []struct {
		name        string
		start       time.Time
		durationMin int
	}{
		{"overflows closing time", time.Date(2025, 3, 5, 17, 30, 0, 0, time.UTC), 60},
		{"crosses midnight", time.Date(2025, 3, 5, 23, 50, 0, 0, time.UTC), 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{}
			locks := &mockLockRepository{}
			svc, events, _ := newTestService(repo, locks)

			err := svc.Create(context.Background(), &model.Booking{
				Kind:        model.KindRegular,
				Start:       tt.start,
				DurationMin: tt.durationMin,
				PatientRef:  "pat-104",
			})
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
			}
			if repo.capturedBooking != nil {
				t.Error("expected nothing written to the store")
			}
			if len(locks.acquired) != 0 {
				t.Errorf("expected no locks taken, got %v", locks.acquired)
			}
			if len(events.published) != 0 {
				t.Errorf("expected no events, got %d", len(events.published))
			}
		})
	}
}

func TestCreateEndingAtClosingTimeAccepted(t *testing.T) {
	svc, _, _ := newTestService(&mockBookingRepository{}, &mockLockRepository{})

	// The end bound is half-open, so finishing exactly at 18:00 is fine.
	err := svc.Create(context.Background(), &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 17, 30, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
	})
	if err != nil {
		t.Fatalf("expected create to succeed, got: %v", err)
	}
}

func TestCreateAfterCancelSameSlotSucceeds(t *testing.T) {
	// A cancelled booking stays in the store for history but must not block
	// an identical follow-up on the same resource and interval.
	cancelled := &model.Booking{
		ID:           "507f1f77bcf86cd799439011",
		Kind:         model.KindRegular,
		Start:        time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin:  30,
		PatientRef:   "pat-200",
		Resources:    []string{"chair-1"},
		Status:       model.StatusCancelled,
		CancelReason: "patient rescheduled",
	}

	repo := &mockBookingRepository{
		findByResourceAndRangeFunc: func(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error) {
			// Mirrors the repository's status filter: cancelled bookings are
			// never candidates for a conflict.
			if cancelled.IsActive() && cancelled.Start.Before(to) && from.Before(cancelled.End()) {
				return []*model.Booking{cancelled}, nil
			}
			return nil, nil
		},
	}
	svc, events, _ := newTestService(repo, &mockLockRepository{})

	booking := &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
	}

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("cancelled booking must not block an identical follow-up, got: %v", err)
	}
	if len(events.published) != 1 {
		t.Errorf("expected 1 created event, got %d", len(events.published))
	}
}

func TestCreateLockContention(t *testing.T) {
	locks := &mockLockRepository{
		acquireFunc: func(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error) {
			if lock.ID == "room-1" {
				return nil, duplicateKeyErr()
			}
			return lock, nil
		},
	}
	svc, _, _ := newTestService(&mockBookingRepository{}, locks)

	booking := &model.Booking{
		Kind:        model.KindOperation,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 90,
		PatientRef:  "pat-104",
		Resources:   []string{"dr-miller", "room-1"},
	}

	err := svc.Create(context.Background(), booking)
	if err == nil {
		t.Fatal("expected lock contention error, got nil")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict AppError, got: %v", err)
	}

	// dr-miller sorts before room-1, was acquired first, and must be
	// released when room-1 contends.
	if len(locks.acquired) != 1 || locks.acquired[0] != "dr-miller" {
		t.Errorf("expected only dr-miller acquired, got %v", locks.acquired)
	}
	if len(locks.released) != 1 || locks.released[0] != "dr-miller" {
		t.Errorf("expected dr-miller released after contention, got %v", locks.released)
	}
}

func TestUpdateExcludesSelfFromConflictCheck(t *testing.T) {
	id := "507f1f77bcf86cd799439011"
	existing := &model.Booking{
		ID:          id,
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
		Status:      model.StatusConfirmed,
	}

	var sawExcludeID string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, gotID string) (*model.Booking, error) {
			copy := *existing
			return &copy, nil
		},
		findByResourceAndRangeFunc: func(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error) {
			sawExcludeID = excludeID
			return nil, nil
		},
	}
	svc, _, _ := newTestService(repo, &mockLockRepository{})

	newDuration := 45
	updated, err := svc.Update(context.Background(), id, &model.BookingUpdate{DurationMin: &newDuration})
	if err != nil {
		t.Fatalf("expected update to succeed, got: %v", err)
	}

	if sawExcludeID != id {
		t.Errorf("conflict check must exclude the booking being updated, got excludeID=%q", sawExcludeID)
	}
	if updated.DurationMin != 45 {
		t.Errorf("expected merged duration 45, got %d", updated.DurationMin)
	}
}

func TestUpdateRejectsBackwardStatusTransition(t *testing.T) {
	existing := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
		Status:      model.StatusCompleted,
	}

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			copy := *existing
			return &copy, nil
		},
	}
	svc, _, _ := newTestService(repo, &mockLockRepository{})

	_, err := svc.Update(context.Background(), existing.ID, &model.BookingUpdate{Status: model.StatusArrived})
	if err == nil {
		t.Fatal("expected backward transition to be rejected")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict AppError, got: %v", err)
	}
}

func TestUpdateRejectsReschedulingCancelledBooking(t *testing.T) {
	existing := &model.Booking{
		ID:           "507f1f77bcf86cd799439011",
		Kind:         model.KindRegular,
		Start:        time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin:  30,
		PatientRef:   "pat-104",
		Resources:    []string{"chair-1"},
		Status:       model.StatusCancelled,
		CancelReason: "patient called",
	}

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			copy := *existing
			return &copy, nil
		},
	}
	svc, _, _ := newTestService(repo, &mockLockRepository{})

	start := time.Date(2025, 3, 6, 13, 0, 0, 0, time.UTC)
	_, err := svc.Update(context.Background(), existing.ID, &model.BookingUpdate{Start: &start})
	if err == nil {
		t.Fatal("expected rescheduling a cancelled booking to be rejected")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	existing := &model.Booking{
		ID:           "507f1f77bcf86cd799439011",
		Kind:         model.KindRegular,
		Start:        time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin:  30,
		PatientRef:   "pat-104",
		Resources:    []string{"chair-1"},
		Status:       model.StatusCancelled,
		CancelReason: "patient called",
	}

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			copy := *existing
			return &copy, nil
		},
	}
	svc, events, _ := newTestService(repo, &mockLockRepository{})

	got, err := svc.Cancel(context.Background(), existing.ID, "again")
	if err != nil {
		t.Fatalf("cancelling twice must be a no-op, got: %v", err)
	}
	if got.CancelReason != "patient called" {
		t.Errorf("expected original cancel reason kept, got %q", got.CancelReason)
	}
	if repo.capturedBooking != nil {
		t.Error("expected no write for an already-cancelled booking")
	}
	if len(events.published) != 0 {
		t.Errorf("expected no event for a no-op cancel, got %d", len(events.published))
	}
}

func TestCancelSetsStatusAndReason(t *testing.T) {
	existing := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
		Status:      model.StatusArrived,
	}

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			copy := *existing
			return &copy, nil
		},
	}
	locks := &mockLockRepository{}
	svc, events, _ := newTestService(repo, locks)

	got, err := svc.Cancel(context.Background(), existing.ID, "  patient   called  ")
	if err != nil {
		t.Fatalf("expected cancel to succeed, got: %v", err)
	}

	if got.Status != model.StatusCancelled {
		t.Errorf("expected status cancelled, got %q", got.Status)
	}
	if got.CancelReason != "patient called" {
		t.Errorf("expected normalized cancel reason, got %q", got.CancelReason)
	}

	// Cancellation frees resources; it never takes locks.
	if len(locks.acquired) != 0 {
		t.Errorf("expected no locks for cancel, got %v", locks.acquired)
	}

	if len(events.published) != 1 || events.published[0].GetEventType() != kafka.EventBookingCancelled {
		t.Errorf("expected a single cancelled event, got %v", events.published)
	}
}

func TestCancelCompletedBookingRejected(t *testing.T) {
	existing := &model.Booking{
		ID:          "507f1f77bcf86cd799439011",
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
		Status:      model.StatusCompleted,
	}

	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			copy := *existing
			return &copy, nil
		},
	}
	svc, _, _ := newTestService(repo, &mockLockRepository{})

	if _, err := svc.Cancel(context.Background(), existing.ID, "too late"); err == nil {
		t.Fatal("expected cancelling a completed booking to be rejected")
	}
}

func TestListRangeRejectsInvertedWindow(t *testing.T) {
	svc, _, _ := newTestService(&mockBookingRepository{}, &mockLockRepository{})

	from := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	if _, err := svc.ListRange(context.Background(), from, to, ""); err == nil {
		t.Fatal("expected inverted range to be rejected")
	}
}

func TestCreateToleratesDirectoryFailure(t *testing.T) {
	cfg := testConfig()
	repo := &mockBookingRepository{}
	events := &mockEventPublisher{}
	svc := NewBookingService(
		repo,
		&mockLockRepository{},
		validator.NewBookingValidator(cfg.Log),
		&mockPatientDirectory{
			getByRefFunc: func(ctx context.Context, ref string) (*client.PatientInfo, error) {
				return nil, context.DeadlineExceeded
			},
		},
		events,
		cfg,
	)

	booking := &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Resources:   []string{"chair-1"},
	}

	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("directory failure must not block booking, got: %v", err)
	}
	if booking.PatientName != "" {
		t.Errorf("expected patient name left empty on directory failure, got %q", booking.PatientName)
	}
}
