package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

// Errores de validación. Son los únicos que Deliver retorna como error y
// siempre ocurren antes de tocar el transporte.
var (
	ErrInvalidTemplate  = errors.New("email: invalid template")
	ErrInvalidRecipient = errors.New("email: invalid recipient")
)

// Gateway valida y entrega mensajes renderizados.
type Gateway struct {
	transport Transport
	admins    []string
}

// NewGateway crea un gateway sobre t. admins es la lista de distribución
// fija de BroadcastAdmin (puede ser vacía).
func NewGateway(t Transport, admins []string) *Gateway {
	clean := make([]string, 0, len(admins))
	for _, a := range admins {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	return &Gateway{transport: t, admins: clean}
}

// AdminRecipients devuelve la lista de distribución separada por comas.
func (g *Gateway) AdminRecipients() string {
	return strings.Join(g.admins, ",")
}

// Deliver entrega msg a recipient (una o varias direcciones separadas por
// comas). Las fallas del transporte se reportan en el outcome, nunca como
// error.
func (g *Gateway) Deliver(ctx context.Context, msg notification.RenderedMessage, recipient string, from notification.Sender) (notification.DeliveryOutcome, error) {
	log := logger.From(ctx).With(logger.Component("email.gateway"), logger.Op("Deliver"))

	if strings.TrimSpace(msg.Subject) == "" {
		return notification.DeliveryOutcome{}, fmt.Errorf("%w: empty subject", ErrInvalidTemplate)
	}
	if strings.TrimSpace(msg.HTML) == "" {
		return notification.DeliveryOutcome{}, fmt.Errorf("%w: empty html body", ErrInvalidTemplate)
	}
	to, err := ParseRecipients(recipient)
	if err != nil {
		return notification.DeliveryOutcome{}, err
	}

	text := msg.Text
	if text == "" {
		text = HTMLToText(msg.HTML)
	}
	if text == "" {
		text = msg.Subject
	}

	id, err := g.transport.Send(ctx, Envelope{
		From:    from,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    text,
	})
	if err != nil {
		diag := DiagnoseSMTP(err)
		log.Warn("delivery failed",
			logger.Recipient(strings.Join(to, ",")),
			logger.String("diag", diag.Code),
			logger.Bool("temporary", diag.Temporary),
			logger.Err(err),
		)
		return notification.DeliveryOutcome{Success: false, Error: err.Error(), DiagCode: diag.Code}, nil
	}

	log.Debug("delivered", logger.MessageID(id), logger.Int("recipients", len(to)))
	return notification.DeliveryOutcome{Success: true, MessageID: id}, nil
}

// BroadcastAdmin entrega msg a la lista de distribución de administradores.
func (g *Gateway) BroadcastAdmin(ctx context.Context, msg notification.RenderedMessage, from notification.Sender) (notification.DeliveryOutcome, error) {
	return g.Deliver(ctx, msg, g.AdminRecipients(), from)
}

// ParseRecipients separa por comas y valida cada dirección (RFC 5322).
// Entradas vacías se ignoran; se exige al menos una dirección y que todas
// sean válidas. Devuelve solo las direcciones, sin display names.
func ParseRecipients(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, part, err)
		}
		out = append(out, addr.Address)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no address", ErrInvalidRecipient)
	}
	return out, nil
}
