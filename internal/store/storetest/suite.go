// Package storetest contiene la suite de conformidad que todo adapter de
// store debe pasar (memory, sqlite, postgres).
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/store"
	"github.com/stretchr/testify/require"
)

// Seed inserta una cuenta en el espacio de identidad indicado.
type Seed func(t *testing.T, kind repository.AccountKind, a repository.Account)

// Run ejecuta la suite completa contra conn.
func Run(t *testing.T, conn store.AdapterConnection, seed Seed) {
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, conn, seed) })
	t.Run("AccountWriter", func(t *testing.T) { testAccountWriter(t, conn, seed) })
	t.Run("LedgerLifecycle", func(t *testing.T) { testLedgerLifecycle(t, conn) })
	t.Run("LedgerExpiry", func(t *testing.T) { testLedgerExpiry(t, conn) })
	t.Run("LedgerConcurrentCAS", func(t *testing.T) { testLedgerConcurrentCAS(t, conn) })
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testAccounts(t *testing.T, conn store.AdapterConnection, seed Seed) {
	ctx := context.Background()
	seed(t, repository.AccountReseller, repository.Account{ID: "r-1", Email: "r@x.com", DisplayName: "Rita", PreferredLanguage: "sv"})
	seed(t, repository.AccountConsumer, repository.Account{ID: "c-1", Email: "c@x.com", FirstName: "Carl", LastName: "Berg"})

	r, err := conn.Accounts().GetReseller(ctx, "r-1")
	require.NoError(t, err)
	require.Equal(t, "r@x.com", r.Email)
	require.Equal(t, "Rita", r.DisplayName)
	require.Equal(t, "sv", r.PreferredLanguage)

	c, err := conn.Accounts().GetConsumer(ctx, "c-1")
	require.NoError(t, err)
	require.Equal(t, "Carl", c.FirstName)
	require.Equal(t, "Berg", c.LastName)

	// los espacios de identidad son disjuntos
	_, err = conn.Accounts().GetConsumer(ctx, "r-1")
	require.True(t, repository.IsNotFound(err))
	_, err = conn.Accounts().GetReseller(ctx, "missing")
	require.True(t, repository.IsNotFound(err))
}

func testAccountWriter(t *testing.T, conn store.AdapterConnection, seed Seed) {
	ctx := context.Background()
	seed(t, repository.AccountConsumer, repository.Account{ID: "c-2", Email: "c2@x.com"})

	require.NoError(t, conn.AccountWriter().SetEmailVerified(ctx, "c-2"))
	require.NoError(t, conn.AccountWriter().SetPasswordReset(ctx, "c-2", "$argon2id$fake"))

	c, err := conn.Accounts().GetConsumer(ctx, "c-2")
	require.NoError(t, err)
	require.True(t, c.EmailVerified)
	require.NotNil(t, c.PasswordResetAt)

	require.True(t, repository.IsNotFound(conn.AccountWriter().SetEmailVerified(ctx, "ghost")))
}

func record(key string, issued time.Time, ttl time.Duration) repository.LedgerRecord {
	return repository.LedgerRecord{
		Key:       key,
		Purpose:   repository.PurposeEmailVerification,
		SubjectID: "r-1",
		Email:     "r@x.com",
		Metadata:  map[string]any{"origin": "signup"},
		IssuedAt:  issued,
		ExpiresAt: issued.Add(ttl),
	}
}

func testLedgerLifecycle(t *testing.T, conn store.AdapterConnection) {
	ctx := context.Background()
	led := conn.Ledger()
	p := repository.PurposeEmailVerification

	rec := record("k-life", base, time.Hour)
	require.NoError(t, led.Create(ctx, rec))
	require.True(t, repository.IsConflict(led.Create(ctx, rec)))

	// misma key, otro propósito: no colisiona
	other := rec
	other.Purpose = repository.PurposePasswordReset
	require.NoError(t, led.Create(ctx, other))

	got, err := led.Get(ctx, p, "k-life")
	require.NoError(t, err)
	require.Equal(t, "r-1", got.SubjectID)
	require.Equal(t, "signup", got.Metadata["origin"])
	require.True(t, got.ExpiresAt.Equal(rec.ExpiresAt))
	require.False(t, got.Consumed)

	at := base.Add(time.Minute)
	won, err := led.MarkConsumed(ctx, p, "k-life", at)
	require.NoError(t, err)
	require.True(t, won)

	won, err = led.MarkConsumed(ctx, p, "k-life", at)
	require.NoError(t, err)
	require.False(t, won)

	got, err = led.Get(ctx, p, "k-life")
	require.NoError(t, err)
	require.True(t, got.Consumed)
	require.NotNil(t, got.ConsumedAt)
	require.True(t, got.ConsumedAt.Equal(at))

	_, err = led.MarkConsumed(ctx, p, "k-missing", at)
	require.True(t, repository.IsNotFound(err))

	require.NoError(t, led.Delete(ctx, repository.PurposePasswordReset, "k-life"))
	require.True(t, repository.IsNotFound(led.Delete(ctx, repository.PurposePasswordReset, "k-life")))
	_, err = led.Get(ctx, repository.PurposePasswordReset, "k-life")
	require.True(t, repository.IsNotFound(err))
}

func testLedgerExpiry(t *testing.T, conn store.AdapterConnection) {
	ctx := context.Background()
	led := conn.Ledger()
	p := repository.PurposeEmailVerification

	require.NoError(t, led.Create(ctx, record("k-exp", base, time.Hour)))

	won, err := led.MarkConsumed(ctx, p, "k-exp", base.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, won)

	got, err := led.Get(ctx, p, "k-exp")
	require.NoError(t, err)
	require.False(t, got.Consumed)
	require.True(t, got.Expired(base.Add(2*time.Hour)))
}

func testLedgerConcurrentCAS(t *testing.T, conn store.AdapterConnection) {
	ctx := context.Background()
	led := conn.Ledger()
	p := repository.PurposeEmailVerification
	require.NoError(t, led.Create(ctx, record("k-race", base, time.Hour)))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := led.MarkConsumed(ctx, p, "k-race", base.Add(time.Second))
			if err == nil && won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}
