package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
)

// Validator handles input validation for auth operations
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates a request by its struct tags
func (v *Validator) Struct(req interface{}) error {
	if req == nil {
		return apperrors.InvalidRequest("request cannot be nil")
	}

	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.InvalidRequest("Invalid request")
	}

	fe := fieldErrs[0]
	return apperrors.ValidationError(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", fe.Field())
	case "len":
		return fmt.Sprintf("%s must be exactly %s digits", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s digits", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s digits", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
