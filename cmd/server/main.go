package main

import (
	"context"
	"errors"
	"fmt"
	"go-news-portal/internal/auth"
	"go-news-portal/internal/config"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

const defaultSecret = "CHANGE_ME_IN_PRODUCTION_SECRET!!"

// rootCmd serves the portal when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "News portal with a configurable homepage and a back office",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and seed an empty database, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and creates the logger.
func bootstrap() (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt here because the logger is not yet initialized.
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.New(cfg.Log, os.Stdout), nil
}

func runMigrate(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if !data.Ping(ctx, db, log) {
		return errors.New("database is unreachable")
	}
	return prepareDatabase(ctx, db, cfg.Admin, log)
}

// prepareDatabase applies the migrations and fills an empty database.
func prepareDatabase(ctx context.Context, db *sqlx.DB, admin config.AdminConfig, log logger.Logger) error {
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db); err != nil {
		return err
	}
	log.Info("Migrations applied successfully.")

	var seedAdmin *data.User
	if admin.Username != "" && admin.Password != "" {
		hash, err := auth.HashPassword(admin.Password)
		if err != nil {
			return err
		}
		seedAdmin = &data.User{
			Username:     admin.Username,
			Email:        admin.Email,
			PasswordHash: hash,
			Role:         "admin",
			IsActive:     true,
		}
	}
	return data.Seed(ctx, db, seedAdmin, log)
}
