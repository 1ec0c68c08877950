package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
	"github.com/google/uuid"
)

// Envelope es lo que el gateway entrega al transporte, ya validado.
type Envelope struct {
	From    notification.Sender
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Transport entrega un Envelope y retorna el Message-ID asignado.
type Transport interface {
	Send(ctx context.Context, env Envelope) (messageID string, err error)
}

// TransportFunc adapta una función a Transport.
type TransportFunc func(ctx context.Context, env Envelope) (string, error)

func (f TransportFunc) Send(ctx context.Context, env Envelope) (string, error) {
	return f(ctx, env)
}

// newMessageID genera un Message-ID RFC 5322 para el dominio del remitente.
func newMessageID(from string) string {
	domain := "mailgate.local"
	if i := strings.LastIndexByte(from, '@'); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// LogTransport no entrega nada: loguea el envelope y retorna un Message-ID.
// Es el transporte de APP_ENV=dev cuando no hay SMTP configurado.
type LogTransport struct{}

func (LogTransport) Send(ctx context.Context, env Envelope) (string, error) {
	id := newMessageID(env.From.Address)
	logger.From(ctx).Info("email captured (log transport)",
		logger.Component("email.log_transport"),
		logger.MessageID(id),
		logger.String("from", env.From.String()),
		logger.Any("to", env.To),
		logger.String("subject", env.Subject),
		logger.Int("html_bytes", len(env.HTML)),
	)
	return id, nil
}
