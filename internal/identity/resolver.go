// Package identity resuelve el destinatario canónico de un evento.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

// ErrIdentityNotFound: ningún intento de resolución produjo un destinatario.
var ErrIdentityNotFound = errors.New("identity: not found")

// attempt es un paso de resolución. ok=false significa "no aplica o no
// encontró", y se pasa al siguiente. err aborta la resolución.
type attempt struct {
	name   string
	legacy bool
	run    func(ctx context.Context, r *Resolver, ev notification.Event) (notification.ResolvedIdentity, bool, error)
}

// El orden es contractual: el primer acierto gana.
var attempts = []attempt{
	{name: "reseller_by_user_id", run: byReseller},
	{name: "consumer_by_customer_id", run: byConsumer},
	{name: "guest_contact", run: byContact},
	// Fallback de la migración de cuentas: user_id que en realidad es un
	// consumer. Deuda técnica; se quita cuando los callers manden customerId.
	{name: "consumer_by_user_id", legacy: true, run: byUserAsConsumer},
}

// Resolver implementa la resolución sobre un AccountRepository. Solo lee.
type Resolver struct {
	accounts    repository.AccountRepository
	defaultLang string
}

// NewResolver crea un resolver. defaultLang se asigna a cuentas sin
// preferencia guardada (puede ser vacío).
func NewResolver(accounts repository.AccountRepository, defaultLang string) *Resolver {
	return &Resolver{accounts: accounts, defaultLang: defaultLang}
}

// Resolve recorre los intentos en orden. Retorna ErrIdentityNotFound si
// ninguno aplica, o el error de lookup si alguno falla con algo distinto
// de not-found.
func (r *Resolver) Resolve(ctx context.Context, ev notification.Event) (notification.ResolvedIdentity, error) {
	log := logger.From(ctx).With(logger.Component("identity"), logger.Op("Resolve"))

	for _, a := range attempts {
		id, ok, err := a.run(ctx, r, ev)
		if err != nil {
			log.Error("identity lookup failed", logger.String("attempt", a.name), logger.Err(err))
			return notification.ResolvedIdentity{}, fmt.Errorf("identity %s: %w", a.name, err)
		}
		if !ok {
			continue
		}
		if a.legacy {
			log.Warn("identity resolved via legacy user_id fallback",
				logger.SubjectID(ev.UserID), logger.Kind(string(ev.Kind)), logger.Source(ev.Source))
		} else {
			log.Debug("identity resolved", logger.String("attempt", a.name), logger.AccountKind(string(id.AccountKind)))
		}
		return id, nil
	}
	return notification.ResolvedIdentity{}, ErrIdentityNotFound
}

func byReseller(ctx context.Context, r *Resolver, ev notification.Event) (notification.ResolvedIdentity, bool, error) {
	if strings.TrimSpace(ev.UserID) == "" {
		return notification.ResolvedIdentity{}, false, nil
	}
	return r.lookup(ctx, r.accounts.GetReseller, ev.UserID, repository.AccountReseller)
}

func byConsumer(ctx context.Context, r *Resolver, ev notification.Event) (notification.ResolvedIdentity, bool, error) {
	if strings.TrimSpace(ev.CustomerID) == "" {
		return notification.ResolvedIdentity{}, false, nil
	}
	return r.lookup(ctx, r.accounts.GetConsumer, ev.CustomerID, repository.AccountConsumer)
}

func byContact(_ context.Context, _ *Resolver, ev notification.Event) (notification.ResolvedIdentity, bool, error) {
	c := ev.Contact
	if !c.HasEmail() {
		return notification.ResolvedIdentity{}, false, nil
	}
	email := strings.TrimSpace(c.Email)
	return notification.ResolvedIdentity{
		Email:       email,
		DisplayName: DisplayName("", c.FirstName, c.LastName, c.Name, email),
		AccountKind: repository.AccountGuest,
	}, true, nil
}

func byUserAsConsumer(ctx context.Context, r *Resolver, ev notification.Event) (notification.ResolvedIdentity, bool, error) {
	if strings.TrimSpace(ev.UserID) == "" {
		return notification.ResolvedIdentity{}, false, nil
	}
	return r.lookup(ctx, r.accounts.GetConsumer, ev.UserID, repository.AccountConsumer)
}

func (r *Resolver) lookup(ctx context.Context, get func(context.Context, string) (*repository.Account, error), id string, kind repository.AccountKind) (notification.ResolvedIdentity, bool, error) {
	acc, err := get(ctx, id)
	if repository.IsNotFound(err) {
		return notification.ResolvedIdentity{}, false, nil
	}
	if err != nil {
		return notification.ResolvedIdentity{}, false, err
	}
	email := strings.TrimSpace(acc.Email)
	if email == "" {
		return notification.ResolvedIdentity{}, false, nil
	}
	lang := acc.PreferredLanguage
	if lang == "" {
		lang = r.defaultLang
	}
	return notification.ResolvedIdentity{
		Email:             email,
		DisplayName:       DisplayName(acc.DisplayName, acc.FirstName, acc.LastName, "", email),
		AccountKind:       kind,
		PreferredLanguage: lang,
	}, true, nil
}

// DisplayName elige el nombre visible: display > "first last" > name >
// parte local del email.
func DisplayName(display, first, last, name, email string) string {
	if s := strings.TrimSpace(display); s != "" {
		return s
	}
	if s := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last)); s != "" {
		return s
	}
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
