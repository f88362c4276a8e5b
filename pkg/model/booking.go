package model

import (
	"time"
)

type BookingKind string

const (
	KindRegular   BookingKind = "regular"
	KindOperation BookingKind = "operation"
	KindBlocked   BookingKind = "blocked"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusArrived   BookingStatus = "arrived"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking is the atomic schedulable unit: a Regular appointment, a surgical
// Operation, or an administrative Blocked range. It occupies every resource
// in Resources for the half-open interval [Start, End()).
type Booking struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Kind         BookingKind   `json:"kind" bson:"kind" validate:"required,oneof=regular operation blocked"`
	Start        time.Time     `json:"start" bson:"start_time" validate:"required"`
	DurationMin  int           `json:"duration_min" bson:"duration_min" validate:"required,min=1,max=1440"`
	PatientRef   string        `json:"patient_ref,omitempty" bson:"patient_ref,omitempty" validate:"required_unless=Kind blocked,omitempty,min=1,max=64"`
	PatientName  string        `json:"patient_name,omitempty" bson:"patient_name,omitempty" validate:"omitempty,max=100"`
	Label        string        `json:"label,omitempty" bson:"label,omitempty" validate:"omitempty,min=2,max=100"`
	Resources    []string      `json:"resources" bson:"resources" validate:"required,min=1,max=50,dive,min=1,max=64"`
	Notes        string        `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`
	Status       BookingStatus `json:"status" bson:"status" validate:"required,oneof=confirmed arrived completed cancelled"`
	CancelReason string        `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty" validate:"omitempty,max=500"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// End is the exclusive upper bound of the occupied interval.
func (b *Booking) End() time.Time {
	return b.Start.Add(time.Duration(b.DurationMin) * time.Minute)
}

// IsActive reports whether the booking still occupies its resources.
// Cancelled bookings are kept for history but never block anything.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// Overlaps reports half-open interval intersection with another booking.
// Back-to-back bookings (end == start) do not overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.Start.Before(other.End()) && other.Start.Before(b.End())
}

// CanTransitionTo enforces the forward-only status lifecycle
// confirmed -> arrived -> completed, with cancellation allowed from any
// non-terminal state.
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	if next == b.Status {
		return true
	}
	switch b.Status {
	case StatusConfirmed:
		return next == StatusArrived || next == StatusCompleted || next == StatusCancelled
	case StatusArrived:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// BookingUpdate is a partial patch; nil / zero fields are left unchanged.
type BookingUpdate struct {
	Kind         BookingKind   `json:"kind,omitempty" validate:"omitempty,oneof=regular operation blocked"`
	Start        *time.Time    `json:"start,omitempty" validate:"omitempty"`
	DurationMin  *int          `json:"duration_min,omitempty" validate:"omitempty,min=1,max=1440"`
	PatientRef   string        `json:"patient_ref,omitempty" validate:"omitempty,min=1,max=64"`
	Label        string        `json:"label,omitempty" validate:"omitempty,min=2,max=100"`
	Resources    *[]string     `json:"resources,omitempty" validate:"omitempty,min=1,max=50,dive,min=1,max=64"`
	Notes        *string       `json:"notes,omitempty" validate:"omitempty,max=500"`
	Status       BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=confirmed arrived completed cancelled"`
	CancelReason string        `json:"cancel_reason,omitempty" validate:"omitempty,max=500"`
}
