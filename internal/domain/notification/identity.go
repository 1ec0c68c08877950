package notification

import "github.com/dropDatabas3/mailgate/internal/domain/repository"

// ResolvedIdentity es el destinatario canónico de un evento.
type ResolvedIdentity struct {
	Email             string                 `json:"email"`
	DisplayName       string                 `json:"displayName"`
	AccountKind       repository.AccountKind `json:"accountKind"`
	PreferredLanguage string                 `json:"preferredLanguage,omitempty"`
}
