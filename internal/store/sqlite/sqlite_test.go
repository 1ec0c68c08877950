package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/store"
	"github.com/dropDatabas3/mailgate/internal/store/storetest"
)

func open(t *testing.T) *Conn {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	conn, err := store.OpenAdapter(ctx, store.AdapterConfig{Name: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := conn.(*Conn)
	res, err := c.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{1}, res.Applied)
	return c
}

func TestMigrate_Idempotent(t *testing.T) {
	c := open(t)
	res, err := c.Migrate(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Applied)
	require.Equal(t, []int{1}, res.Skipped)
}

func TestConformance(t *testing.T) {
	c := open(t)
	storetest.Run(t, c, func(t *testing.T, kind repository.AccountKind, a repository.Account) {
		table := "consumer_account"
		if kind == repository.AccountReseller {
			table = "reseller_account"
		}
		_, err := c.DB().Exec(`
			INSERT INTO `+table+` (id, email, display_name, first_name, last_name, preferred_language)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Email, a.DisplayName, a.FirstName, a.LastName, a.PreferredLanguage)
		require.NoError(t, err)
	})
}

func TestPasswordHashStored(t *testing.T) {
	c := open(t)
	ctx := context.Background()
	_, err := c.DB().Exec(`INSERT INTO reseller_account (id, email) VALUES ('r', 'r@x.com')`)
	require.NoError(t, err)

	require.NoError(t, c.AccountWriter().SetPasswordReset(ctx, "r", "$argon2id$h"))
	require.NoError(t, c.AccountWriter().SetPasswordReset(ctx, "r", ""))

	var hash string
	require.NoError(t, c.DB().QueryRow(`SELECT password_hash FROM reseller_account WHERE id = 'r'`).Scan(&hash))
	require.Equal(t, "$argon2id$h", hash)
}
