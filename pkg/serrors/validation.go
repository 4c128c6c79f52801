package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/iota-uz/go-i18n/v2/i18n"
)

// ValidationErrors maps a struct field name to the error reported for it.
type ValidationErrors map[string]*BaseError

func NewFieldRequiredError(field, localeKey string) *BaseError {
	return NewError(
		"FIELD_REQUIRED",
		fmt.Sprintf("%s is required", field),
		localeKey,
	).WithTemplateData(map[string]string{"Field": field})
}

func NewInvalidFieldError(field, localeKey string) *BaseError {
	return NewError(
		"FIELD_INVALID",
		fmt.Sprintf("%s is invalid", field),
		localeKey,
	).WithTemplateData(map[string]string{"Field": field})
}

// ProcessValidatorErrors converts go-playground validator failures into
// field-keyed BaseErrors. getFieldLocaleKey may return "" for fields that
// have no dedicated translation; the generic per-tag key is used then.
func ProcessValidatorErrors(
	errs validator.ValidationErrors,
	getFieldLocaleKey func(field string) string,
) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		localeKey := getFieldLocaleKey(field)
		switch fe.Tag() {
		case "required":
			if localeKey == "" {
				localeKey = "ValidationErrors.required"
			}
			out[field] = NewFieldRequiredError(field, localeKey)
		default:
			if localeKey == "" {
				localeKey = "ValidationErrors.invalid"
			}
			out[field] = NewInvalidFieldError(field, localeKey)
		}
	}
	return out
}

func LocalizeValidationErrors(errs ValidationErrors, l *i18n.Localizer) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		out[field] = err.Localize(l)
	}
	return out
}
