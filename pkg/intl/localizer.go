package intl

import (
	"context"
	"errors"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var ErrNoLocalizer = errors.New("no localizer found in context")

type localizerKey struct{}
type localeKey struct{}

func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, l)
}

// UseLocalizer returns the request localizer, if any. Callers are expected
// to fall back to untranslated messages when none is present.
func UseLocalizer(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	return l, ok
}

func WithLocale(ctx context.Context, locale language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

func UseLocale(ctx context.Context) language.Tag {
	if locale, ok := ctx.Value(localeKey{}).(language.Tag); ok {
		return locale
	}
	return language.English
}
