package repository

import (
	"context"
	"time"
)

// AccountKind clasifica la identidad que recibe una notificación.
type AccountKind string

const (
	AccountReseller AccountKind = "reseller" // cuenta B2B del portal de revendedores
	AccountConsumer AccountKind = "consumer" // cuenta B2C de la tienda
	AccountGuest    AccountKind = "guest"    // comprador sin cuenta, solo datos del pedido
)

// Account es el registro persistido de una cuenta (reseller o consumer).
type Account struct {
	ID                string
	Email             string
	DisplayName       string
	FirstName         string
	LastName          string
	PreferredLanguage string // vacío = usar default
	EmailVerified     bool
	PasswordResetAt   *time.Time
	CreatedAt         time.Time
}

// AccountRepository resuelve cuentas por ID en los dos espacios de identidad.
type AccountRepository interface {
	// GetReseller busca una cuenta de revendedor.
	// Retorna ErrNotFound si no existe.
	GetReseller(ctx context.Context, id string) (*Account, error)

	// GetConsumer busca una cuenta de consumidor.
	// Retorna ErrNotFound si no existe.
	GetConsumer(ctx context.Context, id string) (*Account, error)
}

// AccountWriter es el "system of record" que el ledger actualiza al consumir un código.
// El subject puede pertenecer a cualquiera de los dos espacios de identidad.
type AccountWriter interface {
	// SetEmailVerified marca el email del subject como verificado.
	SetEmailVerified(ctx context.Context, subjectID string) error

	// SetPasswordReset registra un reset de credenciales. passwordHash vacío
	// solo actualiza el timestamp del reset.
	SetPasswordReset(ctx context.Context, subjectID, passwordHash string) error
}
