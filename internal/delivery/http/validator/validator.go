// Package validator adapts go-playground/validator to echo's
// Validator interface.
package validator

import (
	domainerrors "curator/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// EchoValidator wraps a validator.Validate instance for echo.
type EchoValidator struct {
	validate *validator.Validate
}

// New creates the request validator used by the HTTP server.
func New() *EchoValidator {
	return &EchoValidator{validate: validator.New()}
}

// Validate checks struct tags and converts failures into the domain
// validation error so the error middleware renders them uniformly.
func (v *EchoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
