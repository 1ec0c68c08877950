package repository

import "context"

// Flags propagados a la proyección de perfil.
const (
	FlagEmailVerified = "email_verified"
	FlagPasswordReset = "password_reset"
)

// ProfileProjector actualiza la proyección secundaria (read model) del perfil.
// Es best-effort: el ledger loguea y continúa si falla.
type ProfileProjector interface {
	SetFlag(ctx context.Context, subjectID, flag string, value bool) error
}
