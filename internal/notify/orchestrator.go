package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/email"
	"github.com/dropDatabas3/mailgate/internal/metrics"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

// State es el estado de un Send.
type State string

const (
	StateCreated          State = "created"
	StateResolved         State = "resolved"
	StateLanguageSelected State = "language_selected"
	StateRendered         State = "rendered"
	StateDispatched       State = "dispatched"
	StateDelivered        State = "delivered"
	StateFailed           State = "failed"
)

// Result es el outcome del gateway más el contexto de la orquestación.
type Result struct {
	notification.DeliveryOutcome
	State       State                  `json:"state"`
	Kind        notification.Kind      `json:"kind"`
	Recipient   string                 `json:"recipient,omitempty"`
	Language    string                 `json:"language,omitempty"`
	AccountKind repository.AccountKind `json:"accountKind,omitempty"`
	Sender      string                 `json:"sender,omitempty"`
	Source      string                 `json:"source,omitempty"`
}

// ─── Colaboradores ───

type IdentityResolver interface {
	Resolve(ctx context.Context, ev notification.Event) (notification.ResolvedIdentity, error)
}

type Renderer interface {
	Render(kind notification.Kind, lang string, to notification.ResolvedIdentity, p notification.Payload) (notification.RenderedMessage, error)
}

type Gateway interface {
	Deliver(ctx context.Context, msg notification.RenderedMessage, recipient string, from notification.Sender) (notification.DeliveryOutcome, error)
	BroadcastAdmin(ctx context.Context, msg notification.RenderedMessage, from notification.Sender) (notification.DeliveryOutcome, error)
	AdminRecipients() string
}

// Config agrupa las dependencias del orquestador.
type Config struct {
	Resolver        IdentityResolver
	Renderer        Renderer
	Gateway         Gateway
	Senders         SenderDirectory
	DefaultLanguage string   // default "en"
	Languages       []string // idiomas con catálogo
}

// Orchestrator coordina resolución, idioma, render y entrega.
type Orchestrator struct {
	resolver IdentityResolver
	renderer Renderer
	gateway  Gateway
	senders  SenderDirectory
	langs    languageSelector
	now      func() time.Time
}

// New crea el orquestador.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Resolver == nil || cfg.Renderer == nil || cfg.Gateway == nil {
		return nil, fmt.Errorf("notify: resolver, renderer and gateway are required")
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	return &Orchestrator{
		resolver: cfg.Resolver,
		renderer: cfg.Renderer,
		gateway:  cfg.Gateway,
		senders:  cfg.Senders,
		langs:    newLanguageSelector(cfg.DefaultLanguage, cfg.Languages),
		now:      time.Now,
	}, nil
}

// Send orquesta un evento. Retorna error solo para fallas de validación o
// resolución (TemplateInputError, ResolutionError, ErrInvalidRecipient,
// ErrInvalidTemplate) o errores de lookup; una falla del transporte vuelve
// como Result con Success=false y State=Failed.
func (o *Orchestrator) Send(ctx context.Context, ev notification.Event) (Result, error) {
	start := o.now()
	if ev.Kind == "" && ev.Payload != nil {
		ev.Kind = ev.Payload.Kind()
	}
	res := Result{State: StateCreated, Kind: ev.Kind, Source: ev.Source}
	log := logger.From(ctx).With(
		logger.Component("notify"),
		logger.Op("Send"),
		logger.Kind(string(ev.Kind)),
		logger.Source(ev.Source),
	)

	finish := func(result string, err error) (Result, error) {
		metrics.ObserveNotification(string(ev.Kind), result, o.now().Sub(start))
		if res.State != StateDelivered {
			res.State = StateFailed
		}
		return res, err
	}

	if _, err := notification.ParseKind(string(ev.Kind)); err != nil {
		log.Warn("unknown kind", logger.Err(err))
		return finish("invalid", err)
	}
	// La validación del payload es pura: se hace antes de cualquier lookup.
	if err := ev.CheckPayload(); err != nil {
		log.Warn("invalid payload", logger.Err(err))
		return finish("invalid", err)
	}

	// Created → Resolved
	to, err := o.resolver.Resolve(ctx, ev)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			rerr := &ResolutionError{
				Kind:       ev.Kind,
				UserID:     ev.UserID,
				CustomerID: ev.CustomerID,
				HasContact: ev.Contact.HasEmail(),
				Err:        err,
			}
			log.Warn("recipient not resolved", logger.Err(rerr))
			return finish("unresolved", rerr)
		}
		log.Error("identity resolution failed", logger.Err(err))
		return finish("error", fmt.Errorf("notify: resolve: %w", err))
	}
	res.State = StateResolved
	res.AccountKind = to.AccountKind

	// Resolved → LanguageSelected
	res.Language = o.langs.Select(ev.Language, to.PreferredLanguage)
	res.State = StateLanguageSelected

	// LanguageSelected → Rendered
	msg, err := o.renderer.Render(ev.Kind, res.Language, to, ev.Payload)
	if err != nil {
		log.Warn("render failed", logger.Err(err))
		if notification.IsTemplateInput(err) {
			return finish("invalid", err)
		}
		return finish("error", fmt.Errorf("notify: render: %w", err))
	}
	res.State = StateRendered

	from := o.senders.Lookup(ev.Kind, to.AccountKind)
	res.Sender = from.String()
	res.Recipient = to.Email
	if r := strings.TrimSpace(ev.Recipient); r != "" {
		res.Recipient = r
	}

	// Rendered → Dispatched → {Delivered | Failed}
	var out notification.DeliveryOutcome
	if ev.IsAdminNotification {
		res.Recipient = o.gateway.AdminRecipients()
		out, err = o.gateway.BroadcastAdmin(ctx, msg, from)
	} else {
		out, err = o.gateway.Deliver(ctx, msg, res.Recipient, from)
	}
	if err != nil {
		log.Warn("delivery rejected before dispatch", logger.Recipient(res.Recipient), logger.Err(err))
		return finish("invalid", err)
	}
	res.State = StateDispatched
	res.DeliveryOutcome = out

	log = log.With(
		logger.Recipient(res.Recipient),
		logger.AccountKind(string(res.AccountKind)),
		logger.Language(res.Language),
	)
	if !out.Success {
		metrics.RecordTransportFailure(out.DiagCode)
		log.Warn("notification failed", logger.String("error", out.Error), logger.String("diag", out.DiagCode))
		return finish("failed", nil)
	}
	res.State = StateDelivered
	log.Info("notification delivered", logger.MessageID(out.MessageID))
	return finish("delivered", nil)
}

var _ Gateway = (*email.Gateway)(nil)
