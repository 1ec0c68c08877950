// Package ledger emite y consume los códigos de un solo uso de verificación
// de email y reset de credenciales.
//
// Issue persiste el registro (clave = sha256 del código) y envía el email a
// través del orquestador; si el envío falla el registro se borra. Consume
// hace primero el compare-and-swap en el store: solo el caller que lo gana
// ejecuta los efectos (system of record y proyección de perfil), que son
// best-effort.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/mailgate/internal/audit"
	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/metrics"
	"github.com/dropDatabas3/mailgate/internal/notify"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
	"github.com/dropDatabas3/mailgate/internal/security/password"
	"github.com/dropDatabas3/mailgate/internal/security/token"
)

var (
	ErrNotFound        = errors.New("ledger: code not found")
	ErrExpired         = errors.New("ledger: code expired")
	ErrDeliveryFailed  = errors.New("ledger: delivery failed")
	ErrInvalidRequest  = errors.New("ledger: invalid request")
	ErrInvalidPassword = errors.New("ledger: password does not meet policy")
)

const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetTTL        = time.Hour
)

// Notifier es el orquestador visto desde el ledger.
type Notifier interface {
	Send(ctx context.Context, ev notification.Event) (notify.Result, error)
}

// Config agrupa las dependencias de una instancia del ledger.
type Config struct {
	TTL      time.Duration
	Records  repository.LedgerRepository
	Accounts repository.AccountWriter
	Profiles repository.ProfileProjector // opcional
	Notifier Notifier

	// LinkBase es la URL a la que se agrega ?code=<código> en el email.
	LinkBase string

	// Solo reset: política y parámetros para WithNewPassword.
	Policy *password.Policy
	Hash   password.Params

	Now  func() time.Time
	Rand io.Reader // nil = crypto/rand
}

// Ledger es una instancia (verificación o reset).
type Ledger struct {
	purpose  repository.LedgerPurpose
	kind     notification.Kind
	flag     string
	ttl      time.Duration
	records  repository.LedgerRepository
	accounts repository.AccountWriter
	profiles repository.ProfileProjector
	notifier Notifier
	linkBase *url.URL
	policy   *password.Policy
	hash     password.Params
	now      func() time.Time
	rand     io.Reader
}

// NewVerification crea el ledger de verificación de email (TTL default 24h).
func NewVerification(cfg Config) (*Ledger, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultVerificationTTL
	}
	return newLedger(repository.PurposeEmailVerification, notification.KindEmailVerification,
		repository.FlagEmailVerified, cfg)
}

// NewReset crea el ledger de reset de credenciales (TTL default 1h).
func NewReset(cfg Config) (*Ledger, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultResetTTL
	}
	if cfg.Hash == (password.Params{}) {
		cfg.Hash = password.Default
	}
	return newLedger(repository.PurposePasswordReset, notification.KindPasswordReset,
		repository.FlagPasswordReset, cfg)
}

func newLedger(p repository.LedgerPurpose, k notification.Kind, flag string, cfg Config) (*Ledger, error) {
	if cfg.Records == nil || cfg.Accounts == nil || cfg.Notifier == nil {
		return nil, fmt.Errorf("ledger %s: records, accounts and notifier are required", p)
	}
	base, err := url.Parse(strings.TrimSpace(cfg.LinkBase))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ledger %s: invalid link base %q", p, cfg.LinkBase)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ledger{
		purpose:  p,
		kind:     k,
		flag:     flag,
		ttl:      cfg.TTL,
		records:  cfg.Records,
		accounts: cfg.Accounts,
		profiles: cfg.Profiles,
		notifier: cfg.Notifier,
		linkBase: base,
		policy:   cfg.Policy,
		hash:     cfg.Hash,
		now:      cfg.Now,
		rand:     cfg.Rand,
	}, nil
}

func (l *Ledger) Purpose() repository.LedgerPurpose { return l.purpose }
func (l *Ledger) TTL() time.Duration                { return l.ttl }

// ─── Issue ───

type IssueRequest struct {
	SubjectID string
	Email     string
	Name      string
	Metadata  map[string]any
	Language  string
}

type IssueResult struct {
	Code      string
	ExpiresAt time.Time
	MessageID string
}

// Issue genera un código, lo persiste y envía el email correspondiente.
// Si el envío falla el registro se borra y se retorna ErrDeliveryFailed.
func (l *Ledger) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	log := logger.From(ctx).With(
		logger.Component("ledger"),
		logger.Op("Issue"),
		logger.Purpose(string(l.purpose)),
		logger.SubjectID(req.SubjectID),
	)

	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.SubjectID) == "" || req.Email == "" {
		l.record("issue", "invalid")
		return IssueResult{}, fmt.Errorf("%w: subjectId and email are required", ErrInvalidRequest)
	}

	code, err := token.NewCode(l.rand)
	if err != nil {
		l.record("issue", "error")
		return IssueResult{}, err
	}
	now := l.now().UTC()
	rec := repository.LedgerRecord{
		Key:       token.Key(code),
		Purpose:   l.purpose,
		SubjectID: req.SubjectID,
		Email:     req.Email,
		Metadata:  req.Metadata,
		IssuedAt:  now,
		ExpiresAt: now.Add(l.ttl),
	}
	if err := l.records.Create(ctx, rec); err != nil {
		log.Error("failed to persist record", logger.Err(err))
		l.record("issue", "error")
		return IssueResult{}, fmt.Errorf("ledger issue: %w", err)
	}

	res, err := l.notifier.Send(ctx, notification.Event{
		Kind:    l.kind,
		Payload: l.payload(code, rec.ExpiresAt),
		// El sujeto se resuelve por sus cuentas (idioma y sender); si no
		// existe queda como guest con el contacto inline.
		UserID:     req.SubjectID,
		CustomerID: req.SubjectID,
		Contact:    &notification.Contact{Email: req.Email, Name: req.Name},
		Recipient:  req.Email,
		Source:     "ledger." + string(l.purpose),
		Language:   req.Language,
	})
	if err == nil && !res.Success {
		err = errors.New(res.Error)
	}
	if err != nil {
		// rollback compensatorio: un código que nadie recibió no debe quedar vivo
		if derr := l.records.Delete(ctx, l.purpose, rec.Key); derr != nil {
			log.Error("rollback failed", logger.Err(derr))
		}
		log.Warn("delivery failed, record rolled back", logger.Err(err))
		l.record("issue", "delivery_failed")
		return IssueResult{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	log.Info("code issued", logger.MessageID(res.MessageID))
	audit.Log(ctx, audit.CodeIssued,
		logger.Purpose(string(l.purpose)),
		logger.SubjectID(req.SubjectID),
		logger.Recipient(req.Email),
	)
	l.record("issue", "ok")
	return IssueResult{Code: code, ExpiresAt: rec.ExpiresAt, MessageID: res.MessageID}, nil
}

func (l *Ledger) payload(code string, exp time.Time) notification.Payload {
	u := *l.linkBase
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	if l.purpose == repository.PurposePasswordReset {
		return notification.PasswordReset{Code: code, ResetURL: u.String(), ExpiresAt: exp}
	}
	return notification.EmailVerification{Code: code, VerifyURL: u.String(), ExpiresAt: exp}
}

// ─── Consume ───

type ConsumeResult struct {
	AlreadyVerified bool           `json:"alreadyVerified"`
	SubjectID       string         `json:"subjectId,omitempty"`
	SubjectEmail    string         `json:"subjectEmail,omitempty"`
	SubjectMetadata map[string]any `json:"subjectMetadata,omitempty"`
}

type consumeOptions struct {
	newPassword string
}

type ConsumeOption func(*consumeOptions)

// WithNewPassword fija la credencial nueva al consumir un código de reset.
func WithNewPassword(pw string) ConsumeOption {
	return func(o *consumeOptions) { o.newPassword = pw }
}

// Consume canjea un código. Un código ya consumido es éxito con
// AlreadyVerified=true; uno expirado retorna ErrExpired y queda sin tocar.
func (l *Ledger) Consume(ctx context.Context, code string, opts ...ConsumeOption) (ConsumeResult, error) {
	var o consumeOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.From(ctx).With(
		logger.Component("ledger"),
		logger.Op("Consume"),
		logger.Purpose(string(l.purpose)),
	)

	code = strings.TrimSpace(code)
	if code == "" {
		l.record("consume", "not_found")
		return ConsumeResult{}, ErrNotFound
	}
	key := token.Key(code)

	rec, err := l.records.Get(ctx, l.purpose, key)
	if err != nil {
		return ConsumeResult{}, l.lookupErr(err)
	}
	res := ConsumeResult{SubjectID: rec.SubjectID, SubjectEmail: rec.Email, SubjectMetadata: rec.Metadata}
	log = log.With(logger.SubjectID(rec.SubjectID))

	if rec.Consumed {
		audit.Log(ctx, audit.CodeReplayed, logger.Purpose(string(l.purpose)), logger.SubjectID(rec.SubjectID))
		l.record("consume", "already")
		res.AlreadyVerified = true
		return res, nil
	}
	now := l.now().UTC()
	if rec.Expired(now) {
		audit.Log(ctx, audit.CodeExpired, logger.Purpose(string(l.purpose)), logger.SubjectID(rec.SubjectID))
		l.record("consume", "expired")
		return ConsumeResult{}, ErrExpired
	}

	hash, err := l.newPasswordHash(o.newPassword)
	if err != nil {
		l.record("consume", "invalid")
		return ConsumeResult{}, err
	}

	won, err := l.records.MarkConsumed(ctx, l.purpose, key, now)
	if err != nil {
		return ConsumeResult{}, l.lookupErr(err)
	}
	if !won {
		// otro caller ganó el swap, o expiró entre Get y MarkConsumed
		again, err := l.records.Get(ctx, l.purpose, key)
		if err != nil {
			return ConsumeResult{}, l.lookupErr(err)
		}
		if !again.Consumed {
			l.record("consume", "expired")
			return ConsumeResult{}, ErrExpired
		}
		l.record("consume", "already")
		res.AlreadyVerified = true
		return res, nil
	}

	// (a) system of record
	if l.purpose == repository.PurposePasswordReset {
		err = l.accounts.SetPasswordReset(ctx, rec.SubjectID, hash)
	} else {
		err = l.accounts.SetEmailVerified(ctx, rec.SubjectID)
	}
	if err != nil {
		log.Error("account update failed (best-effort)", logger.Err(err))
	}

	// (b) proyección de perfil
	if l.profiles != nil {
		if err := l.profiles.SetFlag(ctx, rec.SubjectID, l.flag, true); err != nil {
			log.Warn("profile projection failed (best-effort)", logger.Err(err))
		}
	}

	log.Info("code consumed")
	audit.Log(ctx, audit.CodeConsumed, logger.Purpose(string(l.purpose)), logger.SubjectID(rec.SubjectID))
	l.record("consume", "ok")
	return res, nil
}

func (l *Ledger) newPasswordHash(pw string) (string, error) {
	if pw == "" {
		return "", nil
	}
	if l.purpose != repository.PurposePasswordReset {
		return "", fmt.Errorf("%w: newPassword only applies to password reset", ErrInvalidRequest)
	}
	if l.policy != nil {
		if err := l.policy.Validate(pw); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidPassword, err)
		}
	}
	return password.Hash(l.hash, pw)
}

func (l *Ledger) lookupErr(err error) error {
	if repository.IsNotFound(err) {
		l.record("consume", "not_found")
		return ErrNotFound
	}
	l.record("consume", "error")
	return fmt.Errorf("ledger consume: %w", err)
}

func (l *Ledger) record(op, result string) {
	metrics.RecordLedger(string(l.purpose), op, result)
}
