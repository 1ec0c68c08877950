package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

type ledgerRepo struct {
	pool *pgxpool.Pool
}

func (r *ledgerRepo) Create(ctx context.Context, rec repository.LedgerRecord) error {
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_record (purpose, key, subject_id, email, metadata, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (purpose, key) DO NOTHING
	`, string(rec.Purpose), rec.Key, rec.SubjectID, rec.Email, meta, rec.IssuedAt, rec.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *ledgerRepo) Get(ctx context.Context, purpose repository.LedgerPurpose, key string) (*repository.LedgerRecord, error) {
	rec := repository.LedgerRecord{Purpose: purpose, Key: key}
	err := r.pool.QueryRow(ctx, `
		SELECT subject_id, email, metadata, issued_at, expires_at, consumed, consumed_at
		FROM ledger_record WHERE purpose = $1 AND key = $2
	`, string(purpose), key).Scan(
		&rec.SubjectID, &rec.Email, &rec.Metadata,
		&rec.IssuedAt, &rec.ExpiresAt, &rec.Consumed, &rec.ConsumedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkConsumed es un único UPDATE condicional: la fila solo cambia si sigue
// sin consumir y no expiró en at.
func (r *ledgerRepo) MarkConsumed(ctx context.Context, purpose repository.LedgerPurpose, key string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_record SET consumed = TRUE, consumed_at = $3
		WHERE purpose = $1 AND key = $2 AND consumed = FALSE AND expires_at >= $3
	`, string(purpose), key, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ledger_record WHERE purpose = $1 AND key = $2)`,
		string(purpose), key).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, repository.ErrNotFound
	}
	return false, nil
}

func (r *ledgerRepo) Delete(ctx context.Context, purpose repository.LedgerPurpose, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ledger_record WHERE purpose = $1 AND key = $2`, string(purpose), key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
