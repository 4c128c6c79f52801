package serrors

import (
	"fmt"

	"github.com/iota-uz/go-i18n/v2/i18n"
)

// BaseError is a typed error carrying a stable machine-readable code, a
// human-readable fallback message and an optional locale key so the
// presentation layer can render a translated, field-level message.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithTemplateData attaches structured details (e.g. expected/actual) used
// both for localization templates and for API error payloads.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

// Localize renders the error through the given localizer, falling back to
// the plain message when no locale key is set or the lookup fails.
func (e *BaseError) Localize(l *i18n.Localizer) string {
	if l == nil || e.LocaleKey == "" {
		return e.Message
	}
	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    e.LocaleKey,
		TemplateData: e.TemplateData,
	})
	if err != nil {
		return e.Message
	}
	return msg
}
