package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/dropDatabas3/mailgate/internal/observability/logger"
	mail "github.com/go-mail/mail"
)

// SMTPConfig contiene la configuración para conectarse a un servidor SMTP.
type SMTPConfig struct {
	Host               string
	Port               int // default 587
	Username           string
	Password           string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool   // solo dev
	Timeout            time.Duration
}

// SMTPTransport implementa Transport usando SMTP (go-mail).
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport crea un transporte SMTP con defaults razonables.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPTransport{cfg: cfg}
}

// Send arma un multipart/alternative (txt + html) y lo entrega.
// Un envelope con varios destinatarios sale como un único mensaje.
func (s *SMTPTransport) Send(ctx context.Context, env Envelope) (string, error) {
	log := logger.From(ctx).With(
		logger.Component("email.smtp"),
		logger.String("host", s.cfg.Host),
		logger.Int("port", s.cfg.Port),
	)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := newMessageID(env.From.Address)
	log.Debug("sending email",
		logger.String("from", env.From.String()),
		logger.Any("to", env.To),
		logger.String("subject", env.Subject),
		logger.String("tls_mode", s.cfg.TLSMode),
	)

	m := mail.NewMessage()
	if env.From.Name != "" {
		m.SetAddressHeader("From", env.From.Address, env.From.Name)
	} else {
		m.SetHeader("From", env.From.Address)
	}
	m.SetHeader("To", env.To...)
	m.SetHeader("Subject", env.Subject)
	m.SetHeader("Message-ID", id)
	m.SetDateHeader("Date", time.Now())

	// Preferimos multipart/alternative (txt + html)
	if env.Text != "" {
		m.SetBody("text/plain", env.Text)
		m.AddAlternative("text/html", env.HTML)
	} else {
		m.SetBody("text/html", env.HTML)
	}

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = s.cfg.Timeout
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		diag := DiagnoseSMTP(err)
		log.Error("smtp send failed", logger.Err(err), logger.String("diag", diag.Code))
		return "", fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent", logger.MessageID(id))
	return id, nil
}
