// Package util contiene helpers sin dependencias usados por los logs.
package util

import "strings"

// MaskEmail oculta la parte local y el primer label del dominio:
// "anna.berg@shop.example.com" -> "a…@s….example.com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.LastIndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	labels := strings.Split(dom, ".")
	if len(labels) > 1 && len(labels[0]) > 1 {
		labels[0] = labels[0][:1] + "…"
	}
	return user + "@" + strings.Join(labels, ".")
}

// MaskRecipients aplica MaskEmail a una lista separada por comas.
func MaskRecipients(s string) string {
	if !strings.Contains(s, ",") {
		return MaskEmail(s)
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = MaskEmail(p)
	}
	return strings.Join(parts, ",")
}
