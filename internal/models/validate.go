package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// InvalidInputError is returned when the caller supplies a malformed subject or pool.
// It is fatal to the request; no partial result accompanies it.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// IsInvalidInput reports whether err is or wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the subject's required fields.
func (s *SubjectDevice) Validate() error {
	if s == nil {
		return &InvalidInputError{Field: "subject", Reason: "is required"}
	}
	return ValidateStruct(s)
}

// Validate checks a candidate before it is stored. Pools passed to the engine are not
// validated up front; malformed candidates there are skipped individually.
func (c *CandidateDevice) Validate() error {
	if c == nil {
		return &InvalidInputError{Field: "candidate", Reason: "is required"}
	}
	return ValidateStruct(c)
}

// ValidateStruct validates s with its `validate` tags and converts failures to an InvalidInputError.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &InvalidInputError{Reason: err.Error()}
	}
	fields := make([]string, 0, len(fieldErrs))
	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		reasons = append(reasons, translateFieldError(fe))
	}
	return &InvalidInputError{
		Field:  strings.Join(fields, ","),
		Reason: strings.Join(reasons, "; "),
	}
}

func translateFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "alpha":
		return fe.Field() + " must contain letters only"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
