// Package pg implementa el adapter PostgreSQL. Usa pgxpool directamente.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/store"
	pgmigrations "github.com/dropDatabas3/mailgate/migrations/postgres"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	// Verificar conexión
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return New(pool), nil
}

// Conn es una conexión activa a PostgreSQL.
type Conn struct {
	pool     *pgxpool.Pool
	accounts *accountRepo
	ledger   *ledgerRepo
}

// New envuelve un pool ya abierto.
func New(pool *pgxpool.Pool) *Conn {
	return &Conn{
		pool:     pool,
		accounts: &accountRepo{pool: pool},
		ledger:   &ledgerRepo{pool: pool},
	}
}

func (c *Conn) Name() string                            { return "postgres" }
func (c *Conn) Ping(ctx context.Context) error          { return c.pool.Ping(ctx) }
func (c *Conn) Accounts() repository.AccountRepository  { return c.accounts }
func (c *Conn) AccountWriter() repository.AccountWriter { return c.accounts }
func (c *Conn) Ledger() repository.LedgerRepository     { return c.ledger }

// Pool expone el pool para el collector de métricas.
func (c *Conn) Pool() *pgxpool.Pool { return c.pool }

func (c *Conn) Close() error {
	c.pool.Close()
	return nil
}

// Migrate aplica el esquema embebido.
func (c *Conn) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	m := store.NewMigrator(pgmigrations.FS, pgmigrations.Dir)
	return m.Run(ctx, executor{c.pool}, "$")
}

// executor adapta pgxpool a store.SQLExecutor.
type executor struct {
	pool *pgxpool.Pool
}

func (e executor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.pool.Exec(ctx, query, args...)
	return err
}

func (e executor) QueryInts(ctx context.Context, query string) ([]int, error) {
	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var (
	_ store.AdapterConnection    = (*Conn)(nil)
	_ store.MigratableConnection = (*Conn)(nil)
)
