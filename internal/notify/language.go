package notify

import (
	"strings"

	"golang.org/x/text/language"
)

// languageSelector mapea un idioma pedido al soportado más cercano.
type languageSelector struct {
	supported []string
	matcher   language.Matcher
}

// newLanguageSelector: def queda primero y es el resultado cuando no hay
// coincidencia.
func newLanguageSelector(def string, supported []string) languageSelector {
	ordered := []string{def}
	for _, s := range supported {
		if s != def {
			ordered = append(ordered, s)
		}
	}
	tags := make([]language.Tag, len(ordered))
	for i, s := range ordered {
		tags[i] = language.Make(s)
	}
	return languageSelector{supported: ordered, matcher: language.NewMatcher(tags)}
}

// Select aplica "evento ?? preferencia ?? default": el primer candidato no
// vacío decide, y si no tiene catálogo cercano se usa el default.
func (s languageSelector) Select(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		tag, err := language.Parse(c)
		if err != nil {
			return s.supported[0]
		}
		_, idx, conf := s.matcher.Match(tag)
		if conf == language.No {
			return s.supported[0]
		}
		return s.supported[idx]
	}
	return s.supported[0]
}
