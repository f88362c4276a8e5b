package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	bookingserrors "clinicdesk/internal/bookings/errors"
	"clinicdesk/internal/bookings/repository"
	"clinicdesk/internal/bookings/validator"
	"clinicdesk/pkg/client"
	"clinicdesk/pkg/config"
	apperrors "clinicdesk/pkg/errors"
	"clinicdesk/pkg/kafka"
	"clinicdesk/pkg/model"
	"clinicdesk/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id string, reason string) (*model.Booking, error)
	ListRange(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error)
}

// EventPublisher publishes booking lifecycle events. Publishing failures are
// logged, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// PatientDirectory resolves patient references to display data.
type PatientDirectory interface {
	GetByRef(ctx context.Context, ref string) (*client.PatientInfo, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.ResourceLockRepository
	validator *validator.BookingValidator
	patients  PatientDirectory
	events    EventPublisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.ResourceLockRepository,
	validator *validator.BookingValidator,
	patients PatientDirectory,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		patients:  patients,
		events:    events,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}
	s.resolvePatientName(ctx, booking)

	release, err := s.acquireResourceLocks(ctx, booking.Resources)
	if err != nil {
		return err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoConflicts(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.publishEvent(ctx, kafka.EventBookingCreated, booking)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"kind", booking.Kind,
		"start", booking.Start,
		"resources", booking.Resources,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if updates.Status != "" && !existing.CanTransitionTo(updates.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Cannot move booking from status %q to %q", existing.Status, updates.Status,
		))
	}

	if !existing.IsActive() && s.reschedules(updates) {
		return nil, apperrors.Conflict("Cancelled bookings cannot be rescheduled")
	}

	merged := s.mergeBookingUpdates(existing, updates)
	s.applyDefaults(merged)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	// Lock old and new resource sets so a concurrent writer on either side
	// of the move serializes against this update.
	lockSet := unionResources(existing.Resources, merged.Resources)
	release, err := s.acquireResourceLocks(ctx, lockSet)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoConflicts(sessCtx, merged); err != nil {
			return err
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.publishEvent(ctx, kafka.EventBookingUpdated, merged)
	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return merged, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string, reason string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Cancelling twice is a no-op, not an error.
	if existing.Status == model.StatusCancelled {
		return existing, nil
	}

	if !existing.CanTransitionTo(model.StatusCancelled) {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Cannot cancel booking in status %q", existing.Status,
		))
	}

	cancelled := *existing
	cancelled.Status = model.StatusCancelled
	cancelled.CancelReason = sanitizer.NormalizeNotes(reason)

	// Cancellation only frees resources, so no locks or conflict check.
	if _, err := s.repo.Update(ctx, id, &cancelled); err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	s.publishEvent(ctx, kafka.EventBookingCancelled, &cancelled)
	s.cfg.Log.Info("Booking cancelled", "id", id, "reason", cancelled.CancelReason)
	return &cancelled, nil
}

func (s *bookingService) ListRange(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error) {
	if !from.Before(to) {
		return nil, apperrors.InvalidInput("'from' must be before 'to'")
	}

	bookings, err := s.repo.FindByRange(ctx, from, to, kind)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "from", from, "to", to, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.cfg.Log.Debug("Booking range query completed",
		"from", from,
		"to", to,
		"kind", kind,
		"count", len(bookings),
	)
	return bookings, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(b *model.Booking) {
	b.PatientName = sanitizer.NormalizeName(b.PatientName)
	b.Label = sanitizer.NormalizeLabel(b.Label)
	b.Notes = sanitizer.NormalizeNotes(b.Notes)
	b.CancelReason = sanitizer.NormalizeNotes(b.CancelReason)

	for i, r := range b.Resources {
		b.Resources[i] = sanitizer.TrimAndNormalize(r)
	}
}

// applyDefaults fills in the implicit parts of a booking: new bookings start
// confirmed, regular appointments occupy the chair, and blocked ranges occupy
// the whole facility. The resource list is sorted so lock acquisition happens
// in a stable global order.
func (s *bookingService) applyDefaults(b *model.Booking) {
	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}

	switch b.Kind {
	case model.KindRegular:
		b.Resources = appendMissing(b.Resources, s.cfg.ChairResourceID)
	case model.KindBlocked:
		b.Resources = appendMissing(b.Resources, s.cfg.FacilityResourceID)
	}

	sort.Strings(b.Resources)
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.Kind != "" {
		merged.Kind = updates.Kind
	}
	if updates.Start != nil {
		merged.Start = *updates.Start
	}
	if updates.DurationMin != nil {
		merged.DurationMin = *updates.DurationMin
	}
	if updates.PatientRef != "" {
		merged.PatientRef = updates.PatientRef
	}
	if updates.Label != "" {
		merged.Label = updates.Label
	}
	if updates.Resources != nil {
		merged.Resources = append([]string(nil), (*updates.Resources)...)
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.CancelReason != "" {
		merged.CancelReason = updates.CancelReason
	}

	return &merged
}

// reschedules reports whether the patch changes the occupied interval or the
// resource set.
func (s *bookingService) reschedules(updates *model.BookingUpdate) bool {
	return updates.Start != nil || updates.DurationMin != nil || updates.Resources != nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return s.verifyWithinOperatingDay(booking)
}

// verifyWithinOperatingDay rejects a booking whose interval spills past the
// end of the clinic day in the clinic's location. The end bound is half-open,
// so a booking finishing exactly at closing time is fine.
func (s *bookingService) verifyWithinOperatingDay(b *model.Booking) error {
	grid := s.cfg.TimeGrid()
	start := b.Start.In(grid.Location)
	dayEnd := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, grid.Location).
		Add(time.Duration(grid.DayEndMin) * time.Minute)

	if b.End().After(dayEnd) {
		return apperrors.Validation("Booking extends past the end of the clinic day", map[string]any{
			"end":     b.End().In(grid.Location).Format(time.RFC3339),
			"day_end": dayEnd.Format(time.RFC3339),
		})
	}
	return nil
}

// resolvePatientName fills PatientName from the patient directory when a ref
// is present. Directory failures degrade to the bare ref, never block booking.
func (s *bookingService) resolvePatientName(ctx context.Context, b *model.Booking) {
	if s.patients == nil || b.PatientRef == "" || b.PatientName != "" {
		return
	}

	info, err := s.patients.GetByRef(ctx, b.PatientRef)
	if err != nil {
		s.cfg.Log.Warn("Patient directory lookup failed", "patient_ref", b.PatientRef, "error", err)
		return
	}
	b.PatientName = sanitizer.NormalizeName(info.DisplayName)
}

// verifyNoConflicts checks every resource the booking occupies against the
// committed state, inside the caller's transaction. The first resource with an
// overlapping active booking fails the whole write.
func (s *bookingService) verifyNoConflicts(ctx context.Context, booking *model.Booking) error {
	if !booking.IsActive() {
		return nil
	}

	for _, resourceID := range booking.Resources {
		existing, err := s.repo.FindByResourceAndRange(ctx, resourceID, booking.Start, booking.End(), booking.ID)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}

		var blocking []string
		for _, b := range existing {
			if b.Overlaps(booking) {
				blocking = append(blocking, b.ID)
			}
		}
		if len(blocking) > 0 {
			return apperrors.ResourceConflict(resourceID, blocking)
		}
	}
	return nil
}

// acquireResourceLocks takes one advisory lock per resource, in the sorted
// order of the slice, and returns a release func for the locks it holds.
// On contention or failure, locks acquired so far are released before
// returning.
func (s *bookingService) acquireResourceLocks(ctx context.Context, resources []string) (func(), error) {
	acquired := make([]string, 0, len(resources))

	release := func() {
		for _, resourceID := range acquired {
			if err := s.lockRepo.Release(ctx, resourceID); err != nil {
				s.cfg.Log.Warn("Failed to release resource lock", "resource", resourceID, "error", err)
			}
		}
	}

	for _, resourceID := range resources {
		lock := &model.ResourceLock{
			ID:        resourceID,
			ExpiresAt: time.Now().Add(s.cfg.ResourceLockTTL),
		}

		if _, err := s.lockRepo.Acquire(ctx, lock); err != nil {
			release()
			if mongo.IsDuplicateKeyError(err) {
				return nil, apperrors.Conflict(fmt.Sprintf(
					"Resource %q is being booked by another request. Please try again.", resourceID,
				))
			}
			return nil, apperrors.Internal("Failed to acquire resource lock", err)
		}
		acquired = append(acquired, resourceID)
	}

	return release, nil
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.events == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(eventType).
		WithSource("scheduler").
		WithValue(booking).
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func appendMissing(resources []string, id string) []string {
	for _, r := range resources {
		if r == id {
			return resources
		}
	}
	return append(resources, id)
}

func unionResources(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, r := range a {
		set[r] = struct{}{}
	}
	for _, r := range b {
		set[r] = struct{}{}
	}

	union := make([]string, 0, len(set))
	for r := range set {
		union = append(union, r)
	}
	sort.Strings(union)
	return union
}
