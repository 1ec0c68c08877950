package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

type accountRepo struct {
	db  *sql.DB
	now func() time.Time
}

const accountColumns = `id, email, display_name, first_name, last_name,
	preferred_language, email_verified, password_reset_at, created_at`

func (r *accountRepo) GetReseller(ctx context.Context, id string) (*repository.Account, error) {
	return r.get(ctx, "reseller_account", id)
}

func (r *accountRepo) GetConsumer(ctx context.Context, id string) (*repository.Account, error) {
	return r.get(ctx, "consumer_account", id)
}

func (r *accountRepo) get(ctx context.Context, table, id string) (*repository.Account, error) {
	var (
		a         repository.Account
		resetAt   sql.NullString
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM `+table+` WHERE id = ?`, id).Scan(
		&a.ID, &a.Email, &a.DisplayName, &a.FirstName, &a.LastName,
		&a.PreferredLanguage, &a.EmailVerified, &resetAt, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if resetAt.Valid {
		t, err := parseTime(resetAt.String)
		if err != nil {
			return nil, err
		}
		a.PasswordResetAt = &t
	}
	return &a, nil
}

func (r *accountRepo) SetEmailVerified(ctx context.Context, subjectID string) error {
	return r.update(ctx, `SET email_verified = 1 WHERE id = ?`, subjectID)
}

func (r *accountRepo) SetPasswordReset(ctx context.Context, subjectID, passwordHash string) error {
	return r.update(ctx,
		`SET password_reset_at = ?,
		     password_hash = COALESCE(NULLIF(?, ''), password_hash)
		 WHERE id = ?`,
		formatTime(r.now()), passwordHash, subjectID)
}

func (r *accountRepo) update(ctx context.Context, set string, args ...any) error {
	var total int64
	for _, table := range []string{"reseller_account", "consumer_account"} {
		res, err := r.db.ExecContext(ctx, `UPDATE `+table+` `+set, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		total += n
	}
	if total == 0 {
		return repository.ErrNotFound
	}
	return nil
}
