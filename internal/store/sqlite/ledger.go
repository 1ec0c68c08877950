package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

type ledgerRepo struct {
	db *sql.DB
}

func (r *ledgerRepo) Create(ctx context.Context, rec repository.LedgerRecord) error {
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_record (purpose, key, subject_id, email, metadata, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (purpose, key) DO NOTHING
	`, string(rec.Purpose), rec.Key, rec.SubjectID, rec.Email, string(raw),
		formatTime(rec.IssuedAt), formatTime(rec.ExpiresAt))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *ledgerRepo) Get(ctx context.Context, purpose repository.LedgerPurpose, key string) (*repository.LedgerRecord, error) {
	rec := repository.LedgerRecord{Purpose: purpose, Key: key}
	var (
		meta, issued, expires string
		consumedAt            sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT subject_id, email, metadata, issued_at, expires_at, consumed, consumed_at
		FROM ledger_record WHERE purpose = ? AND key = ?
	`, string(purpose), key).Scan(
		&rec.SubjectID, &rec.Email, &meta, &issued, &expires, &rec.Consumed, &consumedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
		return nil, err
	}
	if rec.IssuedAt, err = parseTime(issued); err != nil {
		return nil, err
	}
	if rec.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, err
	}
	if consumedAt.Valid {
		t, err := parseTime(consumedAt.String)
		if err != nil {
			return nil, err
		}
		rec.ConsumedAt = &t
	}
	return &rec, nil
}

// MarkConsumed: UPDATE condicional; el formato de ancho fijo permite
// comparar expires_at como texto.
func (r *ledgerRepo) MarkConsumed(ctx context.Context, purpose repository.LedgerPurpose, key string, at time.Time) (bool, error) {
	ts := formatTime(at)
	res, err := r.db.ExecContext(ctx, `
		UPDATE ledger_record SET consumed = 1, consumed_at = ?
		WHERE purpose = ? AND key = ? AND consumed = 0 AND expires_at >= ?
	`, ts, string(purpose), key, ts)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ledger_record WHERE purpose = ? AND key = ?)`,
		string(purpose), key).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, repository.ErrNotFound
	}
	return false, nil
}

func (r *ledgerRepo) Delete(ctx context.Context, purpose repository.LedgerPurpose, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_record WHERE purpose = ? AND key = ?`, string(purpose), key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
