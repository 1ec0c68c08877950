package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

type accountRepo struct {
	pool *pgxpool.Pool
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
	var a repository.Account
	err := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM `+table+` WHERE id = $1`, id).Scan(
		&a.ID, &a.Email, &a.DisplayName, &a.FirstName, &a.LastName,
		&a.PreferredLanguage, &a.EmailVerified, &a.PasswordResetAt, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// El subject puede vivir en cualquiera de las dos tablas; se actualizan ambas.

func (r *accountRepo) SetEmailVerified(ctx context.Context, subjectID string) error {
	return r.update(ctx, `SET email_verified = TRUE WHERE id = $1`, subjectID)
}

func (r *accountRepo) SetPasswordReset(ctx context.Context, subjectID, passwordHash string) error {
	return r.update(ctx,
		`SET password_reset_at = NOW(),
		     password_hash = COALESCE(NULLIF($2, ''), password_hash)
		 WHERE id = $1`,
		subjectID, passwordHash)
}

func (r *accountRepo) update(ctx context.Context, set string, args ...any) error {
	var total int64
	for _, table := range []string{"reseller_account", "consumer_account"} {
		tag, err := r.pool.Exec(ctx, `UPDATE `+table+` `+set, args...)
		if err != nil {
			return err
		}
		total += tag.RowsAffected()
	}
	if total == 0 {
		return repository.ErrNotFound
	}
	return nil
}
