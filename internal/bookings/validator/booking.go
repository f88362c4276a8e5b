package validator

import (
	"errors"
	"fmt"
	"strings"

	"clinicdesk/pkg/logger"
	"clinicdesk/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if booking.Status != model.StatusCancelled && booking.CancelReason != "" {
		return ValidationErrors{
			ValidationError{
				Field:   "CancelReason",
				Message: "cancel_reason is only allowed on cancelled bookings",
			},
		}
	}

	if dup := firstDuplicate(booking.Resources); dup != "" {
		return ValidationErrors{
			ValidationError{
				Field:   "Resources",
				Message: fmt.Sprintf("resource %q listed more than once", dup),
			},
		}
	}

	if booking.Kind == model.KindBlocked && booking.PatientRef != "" {
		return ValidationErrors{
			ValidationError{
				Field:   "PatientRef",
				Message: "blocked ranges cannot reference a patient",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.Resources != nil {
		if dup := firstDuplicate(*update.Resources); dup != "" {
			return ValidationErrors{
				ValidationError{
					Field:   "Resources",
					Message: fmt.Sprintf("resource %q listed more than once", dup),
				},
			}
		}
	}

	return nil
}

func firstDuplicate(resources []string) string {
	seen := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		if _, ok := seen[r]; ok {
			return r
		}
		seen[r] = struct{}{}
	}
	return ""
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "required_unless":
			message = fmt.Sprintf("%s is required for this booking kind", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
