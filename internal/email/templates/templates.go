// Package templates contiene los renderers de cada kind de notificación.
//
// Un renderer es una función pura: (kind, idioma, destinatario, payload) ->
// RenderedMessage. No hace I/O; los templates HTML están embebidos en el
// binario y se compilan una vez por idioma en New.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
)

//go:embed html/*.html
var htmlFS embed.FS

// DefaultLanguage se usa cuando el idioma pedido no tiene catálogo.
const DefaultLanguage = "en"

// Options configura un Set.
type Options struct {
	Brand string // nombre visible en cabecera y pie (default "mailgate")
}

// Set es el conjunto compilado de renderers, uno por kind y por idioma.
type Set struct {
	brand string
	byLng map[string]*template.Template
}

// New parsea los templates embebidos y prepara una copia por idioma.
func New(opts Options) (*Set, error) {
	if strings.TrimSpace(opts.Brand) == "" {
		opts.Brand = "mailgate"
	}
	base, err := template.New("base").Funcs(baseFuncs(DefaultLanguage)).ParseFS(htmlFS, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, k := range notification.Kinds() {
		if base.Lookup(string(k)) == nil {
			return nil, fmt.Errorf("parse templates: missing template for kind %s", k)
		}
	}

	s := &Set{brand: opts.Brand, byLng: make(map[string]*template.Template, len(catalog))}
	for lang := range catalog {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone templates for %s: %w", lang, err)
		}
		s.byLng[lang] = t.Funcs(baseFuncs(lang))
	}
	return s, nil
}

// MustNew es New que paniquea; útil en tests y wiring estático.
func MustNew(opts Options) *Set {
	s, err := New(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Languages devuelve los idiomas con catálogo, default primero.
func Languages() []string {
	return []string{"en", "sv", "es"}
}

type view struct {
	Lang    string
	Subject string
	Brand   string
	Name    string
	Payload notification.Payload
}

// Render produce el mensaje del kind en el idioma pedido (o el default si no
// hay catálogo). Text queda vacío: lo deriva el gateway.
func (s *Set) Render(kind notification.Kind, lang string, to notification.ResolvedIdentity, p notification.Payload) (notification.RenderedMessage, error) {
	ev := notification.Event{Kind: kind, Payload: p}
	if _, err := notification.ParseKind(string(kind)); err != nil {
		return notification.RenderedMessage{}, err
	}
	if err := ev.CheckPayload(); err != nil {
		return notification.RenderedMessage{}, err
	}

	tpl, ok := s.byLng[lang]
	if !ok {
		lang = DefaultLanguage
		tpl = s.byLng[lang]
	}

	v := view{
		Lang:    lang,
		Subject: translate(lang, string(kind)+".subject", subjectArgs(p)...),
		Brand:   s.brand,
		Name:    to.DisplayName,
		Payload: p,
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, string(kind), v); err != nil {
		return notification.RenderedMessage{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return notification.RenderedMessage{Subject: v.Subject, HTML: buf.String()}, nil
}

type actionView struct {
	URL   string
	Label string
}

func subjectArgs(p notification.Payload) []any {
	switch v := p.(type) {
	case notification.OrderConfirmation:
		return []any{v.Order.Reference()}
	case notification.OrderStatusUpdate:
		return []any{v.Order.Reference(), v.Status}
	case notification.AdminOrderNotification:
		return []any{v.Order.Reference()}
	}
	return nil
}

func baseFuncs(lang string) template.FuncMap {
	return template.FuncMap{
		"t": func(key string, args ...any) string {
			return translate(lang, key, args...)
		},
		"money": func(m notification.Money, currency string) string {
			return m.Format(currency)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04 UTC")
		},
		"action": func(url, label string) actionView {
			return actionView{URL: url, Label: label}
		},
		"customer": func(name, email string) string {
			if strings.TrimSpace(name) == "" {
				return email
			}
			return name + " <" + email + ">"
		},
		"percent": func(f float64) string {
			return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.2f", f*100), "0"), ".0") + "%"
		},
	}
}
