// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/rosterd/rosterd/internal/auth"
	authpg "github.com/rosterd/rosterd/internal/auth/postgres"
	"github.com/rosterd/rosterd/internal/config"
	"github.com/rosterd/rosterd/internal/httpapi"
	"github.com/rosterd/rosterd/internal/logging"
	"github.com/rosterd/rosterd/internal/mail"
	"github.com/rosterd/rosterd/internal/observability"
	"github.com/rosterd/rosterd/internal/store"
)

const shutdownTimeout = 5 * time.Second

// serveConfig holds flag values for the serve command.
type serveConfig struct {
	autoMigrate bool
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the directory server",
		Long: `Start the HTTP API and, unless disabled, the metrics/health
listener. Pending database migrations run first by default.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.autoMigrate, "auto-migrate", true, "run pending migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, flags *serveConfig) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("rosterd", version, cfg.Logging.Format, cfg.Logging.Level)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	if flags.autoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return err
		}
	}

	users := authpg.NewUserRepository(pool)

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.Secret),
		auth.WithSessionTTL(cfg.Auth.SessionTTLDuration()),
		auth.WithResetTTL(cfg.Auth.ResetTTLDuration()))
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "create token service").Wrap(err)
	}

	var mailer auth.Mailer = mail.DisabledMailer{}
	if cfg.Mail.Host != "" {
		smtp, mailErr := mail.NewSMTPMailer(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		if mailErr != nil {
			return oops.Code("SERVE_FAILED").With("operation", "create mailer").Wrap(mailErr)
		}
		mailer = smtp
	} else {
		slog.Warn("mail host not configured, password reset mail disabled")
	}

	service, err := auth.NewService(users, auth.NewArgon2idHasher(), tokens, mailer,
		auth.WithResetBaseURL(cfg.Auth.ResetBaseURL))
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "create auth service").Wrap(err)
	}

	var apiOpts []httpapi.Option
	var obsServer *observability.Server

	if cfg.Observability.Enabled {
		obsServer = observability.NewServer(cfg.Observability.Addr,
			observability.WithReadinessChecker(pool.Ping))

		obsErrCh, obsErr := obsServer.Start()
		if obsErr != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(obsErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

		apiOpts = append(apiOpts, httpapi.WithMetrics(obsServer.Metrics()))
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	api, err := httpapi.NewServer(cfg.Server.Addr, service, tokens, apiOpts...)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "create api server").Wrap(err)
	}

	apiErrCh, err := api.Start()
	if err != nil {
		if obsServer != nil {
			stopServer(obsServer.Stop, "observability")
		}
		return oops.Code("SERVE_FAILED").With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	cmd.Println("Directory server started")
	slog.Info("directory server ready", "addr", api.Addr())

	<-ctx.Done()
	slog.Info("shutting down")

	stopServer(api.Stop, "api")
	if obsServer != nil {
		stopServer(obsServer.Stop, "observability")
	}

	slog.Info("shutdown complete")
	return nil
}

// stopServer stops a server with the shutdown timeout, logging instead of
// failing the command on error.
func stopServer(stop func(context.Context) error, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := stop(ctx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels the context when a server reports an error,
// so one failing listener takes the whole process through graceful
// shutdown. It exits when the channel closes or the context ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
