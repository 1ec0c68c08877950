// Package sqlite implementa el adapter SQLite (modernc.org/sqlite, sin cgo)
// para desarrollo y despliegues de un solo nodo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/store"
	sqlitemigrations "github.com/dropDatabas3/mailgate/migrations/sqlite"
)

// DefaultDSN se usa si STORAGE_DSN está vacío.
const DefaultDSN = "file:mailgate.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// tsLayout: UTC, ancho fijo, comparable como texto.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func init() {
	store.RegisterAdapter(sqliteAdapter{})
}

type sqliteAdapter struct{}

func (sqliteAdapter) Name() string { return "sqlite" }

func (sqliteAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Open abre la base con una sola conexión: SQLite serializa las escrituras
// y ":memory:" solo existe dentro de la conexión que la creó.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}

// Conn es una conexión activa a SQLite.
type Conn struct {
	db       *sql.DB
	accounts *accountRepo
	ledger   *ledgerRepo
}

func New(db *sql.DB) *Conn {
	return &Conn{
		db:       db,
		accounts: &accountRepo{db: db, now: time.Now},
		ledger:   &ledgerRepo{db: db},
	}
}

func (c *Conn) Name() string                            { return "sqlite" }
func (c *Conn) Ping(ctx context.Context) error          { return c.db.PingContext(ctx) }
func (c *Conn) Close() error                            { return c.db.Close() }
func (c *Conn) Accounts() repository.AccountRepository  { return c.accounts }
func (c *Conn) AccountWriter() repository.AccountWriter { return c.accounts }
func (c *Conn) Ledger() repository.LedgerRepository     { return c.ledger }

// DB expone la base para seeds y herramientas.
func (c *Conn) DB() *sql.DB { return c.db }

// Migrate aplica el esquema embebido.
func (c *Conn) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	m := store.NewMigrator(sqlitemigrations.FS, sqlitemigrations.Dir)
	return m.Run(ctx, executor{c.db}, "?")
}

type executor struct {
	db *sql.DB
}

func (e executor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

func (e executor) QueryInts(ctx context.Context, query string) ([]int, error) {
	rows, err := e.db.QueryContext(ctx, query)
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
