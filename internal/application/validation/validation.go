// Package validation holds the request validator shared by the HTTP and
// push-channel entry points.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[@$!%*?&]`)
)

// Validator wraps go-playground/validator with the custom tags used here.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return lowerRe.MatchString(s) && upperRe.MatchString(s) && digitRe.MatchString(s) && specialRe.MatchString(s)
	})
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		return entities.IsCalendarDate(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates s and converts failures into a validation DomainError.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return entities.NewValidationError(err.Error())
	}
	fields := make([]entities.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, entities.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return entities.NewValidationError("Validation failed", fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "password":
		return "Password must contain at least one uppercase letter, one lowercase letter, one number and one special character"
	case "calendar_date":
		return "Date must be a calendar day (YYYY-MM-DD)"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
