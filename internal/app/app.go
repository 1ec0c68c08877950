// Package app arma el grafo de dependencias a partir de la configuración:
// storage, transporte, orquestador, ledgers, proyección, rate limiting y el
// handler HTTP. cmd/mailgate solo carga config y llama a Build.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/mailgate/internal/cache"
	"github.com/dropDatabas3/mailgate/internal/config"
	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	"github.com/dropDatabas3/mailgate/internal/email"
	"github.com/dropDatabas3/mailgate/internal/email/templates"
	mailhttp "github.com/dropDatabas3/mailgate/internal/http"
	healthctrl "github.com/dropDatabas3/mailgate/internal/http/controllers/health"
	notifyctrl "github.com/dropDatabas3/mailgate/internal/http/controllers/notify"
	mw "github.com/dropDatabas3/mailgate/internal/http/middlewares"
	"github.com/dropDatabas3/mailgate/internal/http/router"
	"github.com/dropDatabas3/mailgate/internal/identity"
	"github.com/dropDatabas3/mailgate/internal/ledger"
	"github.com/dropDatabas3/mailgate/internal/notify"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
	"github.com/dropDatabas3/mailgate/internal/rate"
	"github.com/dropDatabas3/mailgate/internal/security/password"
	"github.com/dropDatabas3/mailgate/internal/store"
	"github.com/dropDatabas3/mailgate/internal/store/pg"

	_ "github.com/dropDatabas3/mailgate/internal/store/memory"
	_ "github.com/dropDatabas3/mailgate/internal/store/sqlite"
)

// Version se completa con -ldflags en el build.
var Version = "dev"

// Options permite reemplazar piezas en tests o en comandos de CLI.
type Options struct {
	Transport email.Transport       // nil = según cfg.Mail.Transport
	Registry  prometheus.Registerer // nil = default registerer
	Gatherer  prometheus.Gatherer
	Store     store.AdapterConnection // nil = store.OpenAdapter(cfg.Storage)
}

// App es la aplicación cableada.
type App struct {
	Config       *config.Config
	Store        store.AdapterConnection
	Projection   cache.Projection // nil si profile.driver=none
	Orchestrator *notify.Orchestrator
	Verification *ledger.Ledger
	Reset        *ledger.Ledger
	Handler      http.Handler

	closers []func() error
}

// Build construye la aplicación. Ante error cierra lo que ya abrió.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("app"), logger.Op("Build"))
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// 1. Storage
	if opts.Store != nil {
		a.Store = opts.Store
	} else {
		conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
			Name:         cfg.Storage.Driver,
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.MaxOpenConns,
			MaxIdleConns: cfg.Storage.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("app: open storage: %w", err)
		}
		a.Store = conn
		a.closers = append(a.closers, conn.Close)
	}
	if cfg.Storage.AutoMigrate {
		if m, ok := a.Store.(store.MigratableConnection); ok {
			res, err := m.Migrate(ctx)
			if err != nil {
				return nil, fmt.Errorf("app: migrate: %w", err)
			}
			log.Info("migrations applied", logger.Int("applied", len(res.Applied)), logger.Int("skipped", len(res.Skipped)))
		}
	}

	// 2. Redis compartido (proyección y/o rate limiting)
	var rdb *redis.Client
	if needsRedis(cfg) {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("app: redis ping: %w", err)
		}
	}

	// 3. Proyección de perfil
	if strings.EqualFold(cfg.Profile.Driver, "redis") {
		a.Projection = cache.NewRedisFromClient(rdb, cfg.Profile.Prefix, cfg.Profile.TTL)
	} else {
		proj, err := cache.New(ctx, cache.Config{Driver: cfg.Profile.Driver, Prefix: cfg.Profile.Prefix, TTL: cfg.Profile.TTL})
		if err != nil {
			return nil, fmt.Errorf("app: profile projection: %w", err)
		}
		a.Projection = proj
	}

	// 4. Entrega
	transport := opts.Transport
	if transport == nil {
		transport = newTransport(cfg)
	}
	gateway := email.NewGateway(transport, cfg.Mail.AdminRecipients)

	set, err := templates.New(templates.Options{Brand: cfg.App.Brand})
	if err != nil {
		return nil, fmt.Errorf("app: templates: %w", err)
	}
	senders, err := senderDirectory(cfg)
	if err != nil {
		return nil, err
	}

	a.Orchestrator, err = notify.New(notify.Config{
		Resolver:        identity.NewResolver(a.Store.Accounts(), cfg.App.DefaultLanguage),
		Renderer:        set,
		Gateway:         gateway,
		Senders:         senders,
		DefaultLanguage: cfg.App.DefaultLanguage,
		Languages:       templates.Languages(),
	})
	if err != nil {
		return nil, err
	}

	// 5. Ledgers
	if err := a.buildLedgers(cfg); err != nil {
		return nil, err
	}

	// 6. HTTP
	a.Handler, err = a.buildHandler(cfg, opts, rdb)
	if err != nil {
		return nil, err
	}

	log.Info("app ready",
		logger.String("storage", a.Store.Name()),
		logger.String("transport", cfg.Mail.Transport),
		logger.String("profile", cfg.Profile.Driver),
	)
	return a, nil
}

func (a *App) buildLedgers(cfg *config.Config) error {
	var profiles repository.ProfileProjector
	if a.Projection != nil {
		profiles = a.Projection
	}

	var err error
	a.Verification, err = ledger.NewVerification(ledger.Config{
		TTL:      cfg.Ledger.VerifyTTL,
		Records:  a.Store.Ledger(),
		Accounts: a.Store.AccountWriter(),
		Profiles: profiles,
		Notifier: a.Orchestrator,
		LinkBase: cfg.Ledger.VerifyURL,
	})
	if err != nil {
		return fmt.Errorf("app: verification ledger: %w", err)
	}

	blacklist, err := password.LoadBlacklist(cfg.Security.PasswordBlacklistPath)
	if err != nil {
		return fmt.Errorf("app: password blacklist: %w", err)
	}
	pp := cfg.Security.PasswordPolicy
	a.Reset, err = ledger.NewReset(ledger.Config{
		TTL:      cfg.Ledger.ResetTTL,
		Records:  a.Store.Ledger(),
		Accounts: a.Store.AccountWriter(),
		Profiles: profiles,
		Notifier: a.Orchestrator,
		LinkBase: cfg.Ledger.ResetURL,
		Policy: &password.Policy{
			MinLength:     pp.MinLength,
			RequireUpper:  pp.RequireUpper,
			RequireLower:  pp.RequireLower,
			RequireDigit:  pp.RequireDigit,
			RequireSymbol: pp.RequireSymbol,
			Blacklist:     blacklist,
		},
	})
	if err != nil {
		return fmt.Errorf("app: reset ledger: %w", err)
	}
	return nil
}

func (a *App) buildHandler(cfg *config.Config, opts Options, rdb *redis.Client) (http.Handler, error) {
	var pool func() *pgxpool.Pool
	if c, ok := a.Store.(*pg.Conn); ok {
		pool = c.Pool
	}
	metricsHandler, err := mailhttp.RegisterMetrics(mailhttp.MetricsConfig{
		Registry:   opts.Registry,
		Gatherer:   opts.Gatherer,
		GlobalPool: pool,
	})
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		switch cfg.Rate.Driver {
		case "redis":
			limiter = rate.NewRedisLimiter(rdb, "mailgate:rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	checks := []healthctrl.Check{{Name: "storage", Pinger: a.Store}}
	if rdb != nil {
		checks = append(checks, healthctrl.Check{Name: "redis", Pinger: redisPinger{rdb}, Optional: true})
	}
	if a.Projection != nil {
		checks = append(checks, healthctrl.Check{Name: "profile", Pinger: a.Projection, Optional: true})
	}

	return router.New(router.Deps{
		Notifications: notifyctrl.NewNotificationsController(a.Orchestrator),
		Verification:  notifyctrl.NewLedgerController(a.Verification),
		PasswordReset: notifyctrl.NewLedgerController(a.Reset),
		Health:        healthctrl.NewController(a.Store.Name(), Version, checks...),
		Metrics:       metricsHandler,
		Auth:          mw.ServiceAuth{Secret: []byte(cfg.Auth.ServiceSecret), Issuer: cfg.Auth.Issuer},
		RateLimiter:   limiter,
		IssueLimit:    cfg.Rate.Issue.Limit,
		IssueWindow:   cfg.Rate.Issue.Window,
	}), nil
}

// Close libera las conexiones en orden inverso.
func (a *App) Close() error {
	var errs []error
	if a.Projection != nil {
		errs = append(errs, a.Projection.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

func needsRedis(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Profile.Driver, "redis") ||
		(cfg.Rate.Enabled && strings.EqualFold(cfg.Rate.Driver, "redis"))
}

func newTransport(cfg *config.Config) email.Transport {
	if cfg.Mail.Transport == "smtp" {
		return email.NewSMTPTransport(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
			Timeout:            cfg.SMTP.Timeout,
		})
	}
	return email.LogTransport{}
}

// senderDirectory traduce las reglas de config. Un kind desconocido es
// error de arranque.
func senderDirectory(cfg *config.Config) (notify.SenderDirectory, error) {
	fallback := notification.Sender{Name: cfg.Mail.FromName, Address: cfg.Mail.FromAddress}
	rules := make([]notify.SenderRule, 0, len(cfg.Mail.Senders))
	for i, r := range cfg.Mail.Senders {
		var kind notification.Kind
		if strings.TrimSpace(r.Kind) != "" {
			k, err := notification.ParseKind(r.Kind)
			if err != nil {
				return notify.SenderDirectory{}, fmt.Errorf("app: mail.senders[%d]: %w", i, err)
			}
			kind = k
		}
		ak := repository.AccountKind(strings.ToLower(strings.TrimSpace(r.AccountKind)))
		switch ak {
		case "", repository.AccountReseller, repository.AccountConsumer, repository.AccountGuest:
		default:
			return notify.SenderDirectory{}, fmt.Errorf("app: mail.senders[%d]: unknown account kind %q", i, r.AccountKind)
		}
		name := r.Name
		if name == "" {
			name = fallback.Name
		}
		rules = append(rules, notify.SenderRule{
			Kind:        kind,
			AccountKind: ak,
			Sender:      notification.Sender{Name: name, Address: r.Address},
		})
	}
	return notify.NewSenderDirectory(fallback, rules...), nil
}
