// Package cmd provides the CLI commands for kakeibo.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kakeibo/internal/app"
	"kakeibo/internal/bus"
	"kakeibo/internal/calendar"
	"kakeibo/internal/config"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
	"kakeibo/internal/remote"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
	"kakeibo/internal/storage"
)

var (
	envFile string
	debug   bool

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kakeibo",
	Short: "Track personal expenses against the kakeibo ledger service",
	Long: `kakeibo is a client for a personal finance ledger. Expenses are
entered as free text and parsed server-side; the resulting records can be
listed per day, browsed on a month calendar, edited and deleted.

Example:
  kakeibo add lunch at the noodle place 120
  kakeibo day 2024-03-01
  kakeibo cal 2024-03`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Error: cannot load %s: %v\n", envFile, err)
				os.Exit(1)
			}
		} else {
			_ = godotenv.Load()
		}

		cfg = config.Load()
		if debug {
			cfg.LogLevel = "debug"
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.SetDefault(log.New(log.ParseLevel(cfg.LogLevel), log.ComponentCLI))
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(calCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(settingsCmd)
}

// env wires the client components for one command invocation. Every command
// talks to the coordinator, so the session restore, the refresh-routing
// loop and the screen gating behave the same here as under any other
// surface.
type env struct {
	repo *storage.KVRepository
	app  *app.App
}

// openEnv opens (and migrates) local storage, builds the remote client, and
// brings up the coordinator: restore the persisted session, prime the
// ledger when logged in, subscribe to ledger-changed events.
func openEnv(ctx context.Context) (*env, error) {
	repo, err := storage.NewKVRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	holder := session.NewHolder(repo)
	client := remote.NewClient(remote.ClientConfig{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.HTTPTimeout,
		TokenSource: holder.Token,
	})

	b := bus.New()
	a := app.New(
		holder,
		ledger.NewCache(client),
		services.NewMutator(client, b),
		calendar.New(core.Today()),
		b,
	)
	if err := a.Init(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	return &env{repo: repo, app: a}, nil
}

func (e *env) Close() {
	e.app.Close()
	if err := e.repo.Close(); err != nil {
		slog.Warn("closing storage failed", log.FieldError, err)
	}
}

// currentUser returns the logged-in identity or ErrNotLoggedIn.
func (e *env) currentUser() (core.Identity, error) {
	identity, ok := e.app.Identity()
	if !ok {
		return core.Identity{}, core.ErrNotLoggedIn
	}
	return identity, nil
}

// refreshLedger fetches the full record set for the current user into the
// shared cache and returns the identity.
func (e *env) refreshLedger(ctx context.Context) (core.Identity, error) {
	identity, err := e.currentUser()
	if err != nil {
		return core.Identity{}, err
	}
	if err := e.app.Ledger().Refresh(ctx, identity.SubjectID); err != nil {
		return core.Identity{}, fmt.Errorf("refresh ledger: %w", err)
	}
	return identity, nil
}

// exitOnError logs and exits with a non-zero status.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, log.FieldError, err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
