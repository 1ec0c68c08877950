package rate

import (
	"context"
	"os"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, r.Allowed)
	require.Equal(t, int64(1), r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	require.True(t, r.Allowed)
	require.Zero(t, r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	require.False(t, r.Allowed)
	require.Equal(t, 50*time.Second, r.RetryAfter)

	// otra clave tiene su propio contador
	r, _ = l.Allow(ctx, "5.6.7.8")
	require.True(t, r.Allowed)

	// ventana nueva
	now = now.Add(time.Minute)
	r, _ = l.Allow(ctx, "1.2.3.4")
	require.True(t, r.Allowed)
	require.Equal(t, int64(1), r.CurrentHits)
}

func TestMemoryLimiter_PerEndpointLimits(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(100, time.Minute)

	r, _ := l.AllowWithLimits(ctx, "k", 1, time.Hour)
	require.True(t, r.Allowed)
	r, _ = l.AllowWithLimits(ctx, "k", 1, time.Hour)
	require.False(t, r.Allowed)

	// el límite global no se ve afectado
	r, _ = l.Allow(ctx, "k")
	require.True(t, r.Allowed)
}

// Requiere Redis: MAILGATE_TEST_REDIS_ADDR=localhost:6379
func TestNewRedisLimiter_PrefixSeparator(t *testing.T) {
	start := time.Unix(1714564800, 0)
	for _, prefix := range []string{"mailgate:rl", "mailgate:rl:"} {
		l := NewRedisLimiter(nil, prefix, 1, time.Minute)
		require.Equal(t, "mailgate:rl:", l.Prefix)
		require.Equal(t, "mailgate:rl:issue|1.2.3.4:1/1m0s:1714564800",
			windowKey(l.Prefix, "issue|1.2.3.4", 1, time.Minute, start))
	}
	require.Equal(t, "rl:", NewRedisLimiter(nil, "", 1, time.Minute).Prefix)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("MAILGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MAILGATE_TEST_REDIS_ADDR not set")
	}
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "rl-test:"+time.Now().Format("150405.000")+":", 1, time.Minute)
	ctx := context.Background()

	r, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, r.Allowed)

	r, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, r.Allowed)
	require.Greater(t, r.RetryAfter, time.Duration(0))
}
