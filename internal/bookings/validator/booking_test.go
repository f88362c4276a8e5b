package validator

import (
	"io"
	"strings"
	"testing"
	"time"

	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/model"
)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:  logger.ERROR,
		Format: logger.JSON,
		Output: io.Discard,
	})
	return NewBookingValidator(log)
}

func validBooking() *model.Booking {
	return &model.Booking{
		Kind:        model.KindRegular,
		Start:       time.Date(2025, 3, 5, 13, 0, 0, 0, time.UTC),
		DurationMin: 30,
		PatientRef:  "pat-104",
		Label:       "Cleaning",
		Resources:   []string{"chair-1"},
		Status:      model.StatusConfirmed,
	}
}

func TestValidateAcceptsWellFormedBooking(t *testing.T) {
	v := newTestValidator()

	if err := v.Validate(validBooking()); err != nil {
		t.Fatalf("expected valid booking, got error: %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		mutate func(b *model.Booking)
		field  string
	}{
		{"missing kind", func(b *model.Booking) { b.Kind = "" }, "Kind"},
		{"unknown kind", func(b *model.Booking) { b.Kind = "walk-in" }, "Kind"},
		{"zero duration", func(b *model.Booking) { b.DurationMin = 0 }, "DurationMin"},
		{"duration too long", func(b *model.Booking) { b.DurationMin = 2000 }, "DurationMin"},
		{"no resources", func(b *model.Booking) { b.Resources = nil }, "Resources"},
		{"missing patient ref", func(b *model.Booking) { b.PatientRef = "" }, "PatientRef"},
		{"unknown status", func(b *model.Booking) { b.Status = "tentative" }, "Status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)

			err := v.Validate(b)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error mentioning %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidateBlockedBookingNeedsNoPatient(t *testing.T) {
	v := newTestValidator()

	b := validBooking()
	b.Kind = model.KindBlocked
	b.PatientRef = ""
	b.Label = "Staff meeting"
	b.Resources = []string{"facility"}

	if err := v.Validate(b); err != nil {
		t.Fatalf("blocked booking without patient should validate, got: %v", err)
	}
}

func TestValidateBlockedBookingRejectsPatientRef(t *testing.T) {
	v := newTestValidator()

	b := validBooking()
	b.Kind = model.KindBlocked

	err := v.Validate(b)
	if err == nil {
		t.Fatal("expected error for blocked booking with patient_ref")
	}
	if !strings.Contains(err.Error(), "PatientRef") {
		t.Errorf("expected PatientRef error, got: %v", err)
	}
}

func TestValidateRejectsDuplicateResources(t *testing.T) {
	v := newTestValidator()

	b := validBooking()
	b.Resources = []string{"chair-1", "dr-miller", "chair-1"}

	err := v.Validate(b)
	if err == nil {
		t.Fatal("expected error for duplicate resources")
	}
	if !strings.Contains(err.Error(), "chair-1") {
		t.Errorf("expected duplicate resource named in error, got: %v", err)
	}
}

func TestValidateRejectsCancelReasonOnActiveBooking(t *testing.T) {
	v := newTestValidator()

	b := validBooking()
	b.CancelReason = "patient called"

	if err := v.Validate(b); err == nil {
		t.Fatal("expected error for cancel_reason on a confirmed booking")
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	start := time.Date(2025, 3, 5, 14, 0, 0, 0, time.UTC)
	duration := 45
	if err := v.ValidateUpdate(&model.BookingUpdate{Start: &start, DurationMin: &duration}); err != nil {
		t.Fatalf("expected valid update, got: %v", err)
	}

	bad := 0
	if err := v.ValidateUpdate(&model.BookingUpdate{DurationMin: &bad}); err == nil {
		t.Fatal("expected error for zero duration update")
	}

	dupes := []string{"room-1", "room-1"}
	if err := v.ValidateUpdate(&model.BookingUpdate{Resources: &dupes}); err == nil {
		t.Fatal("expected error for duplicate resources in update")
	}
}
