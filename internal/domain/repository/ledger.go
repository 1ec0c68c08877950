package repository

import (
	"context"
	"time"
)

// LedgerPurpose distingue las dos instancias del ledger.
type LedgerPurpose string

const (
	PurposeEmailVerification LedgerPurpose = "email_verification"
	PurposePasswordReset     LedgerPurpose = "password_reset"
)

// LedgerRecord es un código emitido de un solo uso.
// Key es sha256(code) en base64url; el código crudo nunca se persiste.
type LedgerRecord struct {
	Key        string
	Purpose    LedgerPurpose
	SubjectID  string
	Email      string
	Metadata   map[string]any
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Consumed   bool
	ConsumedAt *time.Time
}

// Expired indica si el registro ya no puede consumirse en el instante now.
func (r LedgerRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// LedgerRepository persiste registros del ledger.
type LedgerRepository interface {
	// Create inserta un registro nuevo. Retorna ErrConflict si la key ya existe.
	Create(ctx context.Context, rec LedgerRecord) error

	// Get busca un registro. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, purpose LedgerPurpose, key string) (*LedgerRecord, error)

	// MarkConsumed hace compare-and-swap de consumed=false -> true, solo si el
	// registro no expiró en at. Retorna false si otro caller ya lo consumió o si
	// expiró; ErrNotFound si no existe.
	MarkConsumed(ctx context.Context, purpose LedgerPurpose, key string, at time.Time) (bool, error)

	// Delete elimina un registro (rollback compensatorio tras un envío fallido).
	Delete(ctx context.Context, purpose LedgerPurpose, key string) error
}
