package http

import (
	"github.com/taskmaster/tasksync/internal/application/validation"
)

// CustomValidator adapts the request validator to echo.Validator.
type CustomValidator struct {
	validator *validation.Validator
}

func NewCustomValidator(v *validation.Validator) *CustomValidator {
	return &CustomValidator{validator: v}
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
