package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/mailgate/internal/app"
	"github.com/dropDatabas3/mailgate/internal/config"
	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	mailhttp "github.com/dropDatabas3/mailgate/internal/http"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
	"github.com/dropDatabas3/mailgate/internal/store"
)

func main() {
	// .env opcional; las variables del sistema siempre ganan.
	_ = godotenv.Load()

	if err := newRootCmd(envOr("CONFIG_PATH", "")).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(configPath string) *cobra.Command {
	root := &cobra.Command{
		Use:           "mailgate",
		Short:         "Notificaciones transaccionales por email",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Ruta al YAML de configuración (env CONFIG_PATH)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "mailgate"})
		return cfg, nil
	}

	root.AddCommand(
		serveCmd(load),
		sendCmd(load),
		kindsCmd(),
		migrateCmd(load),
		&cobra.Command{
			Use:   "version",
			Short: "Muestra la versión",
			Run:   func(cmd *cobra.Command, _ []string) { fmt.Fprintln(cmd.OutOrStdout(), app.Version) },
		},
	)
	return root
}

type loader func() (*config.Config, error)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return mailhttp.Serve(gctx, mailhttp.ServerConfig{
					Addr:            cfg.Server.Addr,
					ReadTimeout:     cfg.Server.ReadTimeout,
					WriteTimeout:    cfg.Server.WriteTimeout,
					ShutdownTimeout: cfg.Server.ShutdownTimeout,
				}, a.Handler)
			})
			return g.Wait()
		},
	}
}

func sendCmd(load loader) *cobra.Command {
	var (
		kind, payload, userID, customerID string
		contactEmail, contactName, lang   string
		admin                             bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Orquesta una notificación desde la línea de comandos",
		Example: `  mailgate send --kind email_verification --user u1 \
    --payload '{"code":"abc","verifyUrl":"https://shop.example.com/verify?code=abc"}'
  mailgate send --kind order_confirmation --email guest@example.com --payload @order.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			k, err := notification.ParseKind(kind)
			if err != nil {
				return err
			}
			raw, err := readPayload(payload)
			if err != nil {
				return err
			}
			p, err := notification.DecodePayload(k, raw)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := app.Build(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			ev := notification.Event{
				Kind:                k,
				Payload:             p,
				UserID:              userID,
				CustomerID:          customerID,
				Source:              "cli",
				Language:            lang,
				IsAdminNotification: admin,
			}
			if contactEmail != "" {
				ev.Contact = &notification.Contact{Email: contactEmail, Name: contactName}
			}

			res, err := a.Orchestrator.Send(ctx, ev)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("delivery failed: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Kind de notificación (ver `mailgate kinds`)")
	cmd.Flags().StringVar(&payload, "payload", "", "Payload JSON, o @archivo")
	cmd.Flags().StringVar(&userID, "user", "", "userId (reseller o consumer legado)")
	cmd.Flags().StringVar(&customerID, "customer", "", "customerId (consumer)")
	cmd.Flags().StringVar(&contactEmail, "email", "", "Email de contacto (guest)")
	cmd.Flags().StringVar(&contactName, "name", "", "Nombre de contacto (guest)")
	cmd.Flags().StringVar(&lang, "lang", "", "Idioma explícito (en, sv, es)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Enviar a los destinatarios admin")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "Lista los kinds soportados y sus campos requeridos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Kind", "Required fields"})
			for _, k := range notification.Kinds() {
				tw.AppendRow(table.Row{k, strings.Join(k.RequiredFields(), ", ")})
			}
			tw.Render()
			return nil
		},
	}
}

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones del storage SQL configurado",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
				Name:         cfg.Storage.Driver,
				DSN:          cfg.Storage.DSN,
				MaxOpenConns: cfg.Storage.MaxOpenConns,
				MaxIdleConns: cfg.Storage.MaxIdleConns,
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			m, ok := conn.(store.MigratableConnection)
			if !ok {
				return fmt.Errorf("storage %q has no migrations", conn.Name())
			}
			res, err := m.Migrate(ctx)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Version", "Status"})
			for _, v := range res.Applied {
				tw.AppendRow(table.Row{v, "applied"})
			}
			for _, v := range res.Skipped {
				tw.AppendRow(table.Row{v, "skipped"})
			}
			tw.Render()
			return nil
		},
	}
}

func readPayload(s string) (json.RawMessage, error) {
	if path, ok := strings.CutPrefix(s, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return json.RawMessage(s), nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
