package intl

import (
	"golang.org/x/text/language"
)

type SupportedLanguage struct {
	Code        string
	VerboseName string
	Tag         language.Tag
}

// SupportedLanguages lists every locale the module ships messages for.
// The first entry is the fallback.
var SupportedLanguages = []SupportedLanguage{
	{
		Code:        "en",
		VerboseName: "English",
		Tag:         language.English,
	},
	{
		Code:        "zh",
		VerboseName: "中文",
		Tag:         language.Chinese,
	},
}

func SupportedTags() []language.Tag {
	tags := make([]language.Tag, len(SupportedLanguages))
	for i, lang := range SupportedLanguages {
		tags[i] = lang.Tag
	}
	return tags
}
