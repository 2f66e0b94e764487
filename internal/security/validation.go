package security

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/mlopezgez/group-habits-tracking/internal/apperror"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// ValidationService checks decoded request bodies against their validate tags
// and the configured length limits. Errors are InvalidInput with a message
// that is safe to show to users.
type ValidationService struct {
	config   *SecurityConfig
	validate *validator.Validate
}

// NewValidationService creates a validation service.
func NewValidationService(config *SecurityConfig) *ValidationService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &ValidationService{config: config, validate: v}
}

// Struct validates req. Only the first failing field is reported.
func (v *ValidationService) Struct(req interface{}) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Internalf(err, "validate request")
	}
	return apperror.New(apperror.InvalidInput, describe(fieldErrs[0]))
}

// ValidateLength checks a free-text field against a rune limit.
func (v *ValidationService) ValidateLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperror.InvalidInputf("%s must be %d characters or less", fieldName, max)
	}
	return nil
}

// ValidateMessage enforces the chat message length limit.
func (v *ValidationService) ValidateMessage(content string) error {
	return v.ValidateLength("content", content, v.config.MaxMessageLength)
}

// ValidateNote enforces the check-in note length limit.
func (v *ValidationService) ValidateNote(note *string) error {
	if note == nil {
		return nil
	}
	return v.ValidateLength("note", *note, v.config.MaxNoteLength)
}

// SanitizeString removes control characters (except newline and tab) and
// trims surrounding whitespace.
func (v *ValidationService) SanitizeString(input string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(input, ""))
}

// SanitizeOptional applies SanitizeString to an optional field.
func (v *ValidationService) SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	s := v.SanitizeString(*input)
	return &s
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// jsonFieldName reports fields by their JSON name so messages match what
// clients sent.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
