package notify

import (
	"errors"
	"strings"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/email"
	httperrors "github.com/dropDatabas3/mailgate/internal/http/errors"
	"github.com/dropDatabas3/mailgate/internal/ledger"
	"github.com/dropDatabas3/mailgate/internal/notify"
	"github.com/dropDatabas3/mailgate/internal/security/password"
)

// mapError traduce errores del dominio al catálogo HTTP. Lo que no
// reconoce queda como 500 con la causa para el log.
func mapError(err error) *httperrors.AppError {
	var (
		tie *notification.TemplateInputError
		pe  *password.PolicyError
	)
	switch {
	case errors.As(err, &tie):
		return httperrors.ErrTemplateInput.WithDetail(tie.Error()).WithCause(err)
	case errors.Is(err, notification.ErrUnknownKind):
		return httperrors.ErrUnknownKind.WithCause(err)
	case errors.Is(err, email.ErrInvalidRecipient):
		return httperrors.ErrInvalidEmail.WithCause(err)
	case errors.Is(err, email.ErrInvalidTemplate):
		return httperrors.ErrInvalidMessage.WithCause(err)
	case errors.Is(err, notify.ErrIdentityNotFound):
		return httperrors.ErrRecipientNotFound.WithCause(err)

	case errors.As(err, &pe):
		return httperrors.ErrPasswordTooWeak.WithDetail(strings.Join(pe.Reasons, ",")).WithCause(err)
	case errors.Is(err, ledger.ErrInvalidPassword):
		return httperrors.ErrPasswordTooWeak.WithCause(err)
	case errors.Is(err, ledger.ErrInvalidRequest):
		return httperrors.ErrBadRequest.WithDetail(err.Error()).WithCause(err)
	case errors.Is(err, ledger.ErrNotFound):
		return httperrors.ErrCodeNotFound.WithCause(err)
	case errors.Is(err, ledger.ErrExpired):
		return httperrors.ErrCodeExpired.WithCause(err)
	case errors.Is(err, ledger.ErrDeliveryFailed):
		return httperrors.ErrDeliveryFailed.WithCause(err)
	}
	return httperrors.FromError(err)
}
