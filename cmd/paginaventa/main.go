package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/valenante/paginaVenta-sub002/internal/api/ws"
	"github.com/valenante/paginaVenta-sub002/internal/auth"
	"github.com/valenante/paginaVenta-sub002/internal/backend"
	"github.com/valenante/paginaVenta-sub002/internal/config"
	"github.com/valenante/paginaVenta-sub002/internal/notify"
	"github.com/valenante/paginaVenta-sub002/internal/provisioning"
	"github.com/valenante/paginaVenta-sub002/internal/server"
	"github.com/valenante/paginaVenta-sub002/internal/store/postgres"
	redisstore "github.com/valenante/paginaVenta-sub002/internal/store/redis"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

const defaultOperatorTokenTTL = 12 * time.Hour

func main() {
	setupLogging()

	if err := rootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

// rootCommand serves the storefront API. Subcommands cover operator tooling.
func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "paginaventa",
		Short:         "Serve the paginaVenta checkout API and storefront",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	}

	cmd.AddCommand(operatorTokenCommand())
	return cmd
}

// operatorTokenCommand prints a signed operator token for the sales team.
func operatorTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operator-token <subject> [ttl]",
		Short: "Issue a signed operator token",
		Long: `Issue a signed operator token for the operator quote and watch endpoints.

The token is signed with PV_SESSION_SECRET and expires after ttl
(a Go duration such as 8h, default 12h).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := strings.TrimSpace(args[0])
			if subject == "" {
				return errors.New("operator-token: subject must not be empty")
			}

			ttl := defaultOperatorTokenTTL
			if len(args) > 1 {
				d, err := time.ParseDuration(args[1])
				if err != nil || d <= 0 {
					return fmt.Errorf("operator-token: invalid ttl %q", args[1])
				}
				ttl = d
			}

			secret := os.Getenv("PV_SESSION_SECRET")
			if len(secret) < 32 {
				return errors.New("operator-token: PV_SESSION_SECRET must be at least 32 characters")
			}

			tok, err := auth.IssueOperatorToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
}

// setupLogging configures the global logger from PV_LOG_LEVEL and PV_LOG_FORMAT.
func setupLogging() {
	level, parseErr := zerolog.ParseLevel(os.Getenv("PV_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("PV_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	if err := postgres.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return err
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	rdb, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// Platform backend: plans, checkout and provisioning.
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	var catalog wizard.PlanCatalog = client
	if cfg.Backend.PlanCacheTTL > 0 {
		cached, cacheErr := backend.NewCachedCatalog(client, cfg.Backend.PlanCacheTTL)
		if cacheErr != nil {
			return cacheErr
		}
		defer cached.Close()
		catalog = cached
	}

	hub := ws.NewHub(ws.HubConfig{
		PubSub:   rdb,
		Attempts: store.CheckoutAttempts(),
		Status:   client,
		Notifier: buildNotifier(cfg.Slack),
		Poller: provisioning.Options{
			Interval:            cfg.Poller.Interval,
			MaxTransportRetries: cfg.Poller.MaxTransportRetries,
			BackoffInitial:      cfg.Poller.BackoffInitial,
			BackoffMax:          cfg.Poller.BackoffMax,
		},
	})

	var assets fs.FS
	if cfg.Server.StaticDir != "" {
		assets = os.DirFS(cfg.Server.StaticDir)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, server.Deps{
		Sessions:   rdb,
		Attempts:   store,
		Catalog:    catalog,
		Controller: wizard.NewController(catalog, client),
		Hub:        hub,
		Health: map[string]server.Pinger{
			"postgres": store,
			"redis":    rdb,
		},
		Assets: assets,
	})

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("backend", cfg.Backend.BaseURL).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// buildNotifier registers the configured Slack channels. It returns nil when
// none is configured.
func buildNotifier(cfg config.SlackConfig) ws.Notifier {
	reg := notify.NewRegistry()
	if cfg.WebhookURL != "" {
		reg.Register(notify.NewSlackWebhook(cfg.WebhookURL))
	}
	if cfg.BotToken != "" {
		reg.Register(notify.NewSlackBot(slacklib.New(cfg.BotToken), cfg.Channel))
	}
	if reg.Len() == 0 {
		log.Info().Msg("ops notifications disabled")
		return nil
	}
	log.Info().Int("channels", reg.Len()).Msg("ops notifications enabled")
	return notify.New(reg)
}
