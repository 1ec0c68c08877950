// Package cache mantiene la proyección de perfil (read model) que el ledger
// actualiza al consumir un código: un conjunto de flags por subject.
//
// Soporta:
//   - Memory (go-cache, in-process, para desarrollo/testing)
//   - Redis (hash por subject, compartido entre réplicas)
//
// Las escrituras son best-effort desde el punto de vista del ledger.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
)

// Projection es el read model de flags de perfil.
type Projection interface {
	repository.ProfileProjector

	// Flags devuelve los flags del subject; vacío si no hay proyección.
	Flags(ctx context.Context, subjectID string) (map[string]bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config configuración para crear una proyección.
type Config struct {
	Driver   string // "memory" | "redis" | "" (sin proyección)
	Addr     string // host:port de Redis
	Password string
	DB       int
	Prefix   string        // prefijo de las keys, default "profile"
	TTL      time.Duration // 0 = no expira
}

// New crea la proyección según la configuración. Driver vacío o "none"
// retorna nil: el ledger funciona sin proyección.
func New(ctx context.Context, cfg Config) (Projection, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "profile"
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(cfg.Prefix, cfg.TTL), nil
	case "redis":
		p, err := NewRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func key(prefix, subjectID string) string {
	return prefix + ":" + subjectID
}
