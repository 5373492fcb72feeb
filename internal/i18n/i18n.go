// Package i18n holds the Swedish and English message catalogs.
//
// There is no process-wide "current locale": every lookup takes the language
// explicitly, and HTTP handlers carry the negotiated language on the request
// context via WithLang / LangFromContext.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

const (
	Swedish  = "sv"
	English  = "en"
	Default  = Swedish
	ctxKeyID = ctxKey("lang")
)

type ctxKey string

var supported = []language.Tag{language.Swedish, language.English}

var matcher = language.NewMatcher(supported)

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Normalize maps arbitrary input ("EN-gb", "sv_SE") onto a supported language.
func Normalize(lang string) string {
	return DetectLanguage(strings.ReplaceAll(lang, "_", "-"))
}

// T translates code into lang. Unknown languages fall back to Swedish and
// unknown codes are returned unchanged.
func T(lang, code string) string {
	if msgs, ok := catalogs[lang]; ok {
		if s, ok := msgs[code]; ok {
			return s
		}
	}
	if s, ok := catalogs[Default][code]; ok {
		return s
	}
	return code
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKeyID, lang)
}

// LangFromContext returns the request language, or Default.
func LangFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyID).(string); ok && v != "" {
		return v
	}
	return Default
}
