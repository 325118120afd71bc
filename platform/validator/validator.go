// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"areabutler_backend/platform/apperr"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance.
// Domain-specific validation rules can be registered using RegisterValidation
// or RegisterEnum. Field names in errors use the json tag.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
// Failures are returned as an *apperr.Error of kind validation.
func (val *Validator) Struct(s any) error {
	if err := val.v.Struct(s); err != nil {
		return toAppError(err)
	}
	return nil
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field any, tag string) error {
	if err := val.v.Var(field, tag); err != nil {
		return toAppError(err)
	}
	return nil
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// RegisterEnum registers tag as "value must be one of allowed".
// Empty strings pass so the rule composes with omitempty and required.
func (val *Validator) RegisterEnum(tag string, allowed ...string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return val.v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, ok := set[value]
		return ok
	})
}

func toAppError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, "validation failed", err)
	}

	details := make([]apperr.FieldDetails, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperr.FieldDetails{
			Field:  fieldPath(fe.Namespace()),
			Reason: fe.Tag(),
		})
	}
	return apperr.Wrap(apperr.KindValidation, "validation failed", err).WithDetails(details)
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}
