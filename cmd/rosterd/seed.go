// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/rosterd/rosterd/internal/auth"
	authpg "github.com/rosterd/rosterd/internal/auth/postgres"
	"github.com/rosterd/rosterd/internal/config"
	"github.com/rosterd/rosterd/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// EnvSeedPassword supplies the initial root password without putting it
// on the command line.
const EnvSeedPassword = "ROSTERD_SEED_PASSWORD"

// seedConfig holds flag values for the seed command.
type seedConfig struct {
	username string
	email    string
	timeout  time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial root account",
		Long: `Creates the initial root account so the directory can be
administered. The password comes from the ` + EnvSeedPassword + ` environment
variable. This command is idempotent - it will not create a duplicate if
run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "root", "initial account username")
	cmd.Flags().StringVar(&cfg.email, "email", "", "initial account email")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, flags *seedConfig) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required (or %s)", config.EnvDatabaseURL)
	}

	password := os.Getenv(EnvSeedPassword)
	if password == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("%s environment variable is required", EnvSeedPassword)
	}
	if err := auth.ValidateUsername(flags.username); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	if err := migrateUp(cfg.Database.URL); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	hash, err := auth.NewArgon2idHasher().Hash(password)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "hash password").Wrap(err)
	}

	user := &auth.User{
		Username:     flags.username,
		Name:         "Administrator",
		Group:        string(auth.RoleRoot),
		Role:         auth.RoleRoot,
		PasswordHash: hash,
	}
	if flags.email != "" {
		user.Email = &flags.email
	}

	users := authpg.NewUserRepository(pool)
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, auth.ErrDuplicate) {
			cmd.Println("Root account already exists, skipping seed")
			slog.Info("directory already seeded", "username", flags.username)
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create root account").Wrap(err)
	}

	cmd.Printf("Created root account %q\n", flags.username)
	slog.Info("created root account", "user_id", user.ID, "username", flags.username)

	cmd.Println("Directory seeding complete!")
	return nil
}
