package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/supportdesk/ticketd/pkg/util/errorutil"
)

var validate = validator.New()

// validateRequest runs struct tag validation and translates failures into the
// standard validation error shape.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return apperrors.NewValidationError("validation failed", details)
}
