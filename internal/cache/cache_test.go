package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

func exercise(t *testing.T, p Projection) {
	t.Helper()
	ctx := context.Background()
	subject := "subj-" + time.Now().Format("150405.000000")

	flags, err := p.Flags(ctx, subject)
	require.NoError(t, err)
	require.Empty(t, flags)

	require.NoError(t, p.SetFlag(ctx, subject, repository.FlagEmailVerified, true))
	require.NoError(t, p.SetFlag(ctx, subject, repository.FlagPasswordReset, false))

	flags, err = p.Flags(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{
		repository.FlagEmailVerified: true,
		repository.FlagPasswordReset: false,
	}, flags)
	require.NoError(t, p.Ping(ctx))
}

func TestMemoryProjection(t *testing.T) {
	p, err := New(context.Background(), Config{Driver: "memory"})
	require.NoError(t, err)
	exercise(t, p)
	require.NoError(t, p.Close())
}

func TestMemoryProjection_FlagsAreCopies(t *testing.T) {
	ctx := context.Background()
	p := NewMemory("profile", 0)
	require.NoError(t, p.SetFlag(ctx, "s", "a", true))

	flags, _ := p.Flags(ctx, "s")
	flags["a"] = false

	again, _ := p.Flags(ctx, "s")
	require.True(t, again["a"])
}

func TestNew_Drivers(t *testing.T) {
	p, err := New(context.Background(), Config{})
	require.NoError(t, err)
	require.Nil(t, p)

	_, err = New(context.Background(), Config{Driver: "memcached"})
	require.Error(t, err)
}

// Requiere Redis: MAILGATE_TEST_REDIS_ADDR=localhost:6379
func TestRedisProjection(t *testing.T) {
	addr := os.Getenv("MAILGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAILGATE_TEST_REDIS_ADDR not set")
	}
	p, err := New(context.Background(), Config{Driver: "redis", Addr: addr, Prefix: "mailgate-test", TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	exercise(t, p)
}
