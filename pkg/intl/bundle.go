package intl

import (
	"embed"
	"encoding/json"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// LoadBundle builds the message bundle from the embedded locale files.
// Fallback language is English.
func LoadBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, lang := range SupportedLanguages {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+lang.Code+".json"); err != nil {
			panic(err)
		}
	}
	return bundle
}
