package notify

import (
	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

// SenderRule asigna un remitente a un (kind, accountKind). Un campo vacío
// actúa como comodín.
type SenderRule struct {
	Kind        notification.Kind      `yaml:"kind"`
	AccountKind repository.AccountKind `yaml:"accountKind"`
	Sender      notification.Sender    `yaml:",inline"`
}

type senderKey struct {
	kind        notification.Kind
	accountKind repository.AccountKind
}

// SenderDirectory es el mapa estático (kind, accountKind) -> Sender.
type SenderDirectory struct {
	rules    map[senderKey]notification.Sender
	fallback notification.Sender
}

// NewSenderDirectory construye el directorio. fallback se usa cuando ninguna
// regla aplica.
func NewSenderDirectory(fallback notification.Sender, rules ...SenderRule) SenderDirectory {
	d := SenderDirectory{rules: make(map[senderKey]notification.Sender, len(rules)), fallback: fallback}
	for _, r := range rules {
		d.rules[senderKey{r.Kind, r.AccountKind}] = r.Sender
	}
	return d
}

// Lookup busca de lo más específico a lo más genérico:
// (kind, account) → (kind, *) → (*, account) → fallback.
func (d SenderDirectory) Lookup(kind notification.Kind, account repository.AccountKind) notification.Sender {
	for _, k := range []senderKey{{kind, account}, {kind, ""}, {"", account}} {
		if s, ok := d.rules[k]; ok && s.Address != "" {
			return s
		}
	}
	return d.fallback
}
