// Package cli реализует командный интерфейс клиента: синхронизация,
// просмотр каталога и офлайн-мутации поверх локального кэша.
package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ServerURL string
	DBPath    string
	Verbose   bool
}

// NewRootCommand creates the root command for the soliluna CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "soliluna",
		Short: "Soliluna - local-first catalog client",
		Long:  "Command line client for the soliluna catalog with an offline-capable local cache.",
	}

	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", envOr("SOLILUNA_SERVER", "http://localhost:8080"), "server base URL")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", defaultDBPath(), "local cache database path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewIngredientCommand(opts))
	cmd.AddCommand(NewRecipeCommand(opts))
	cmd.AddCommand(NewDishCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// newLogger возвращает логгер для команд: тихий по умолчанию, debug с -v.
func newLogger(opts *RootOptions) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "soliluna.db"
	}
	return filepath.Join(dir, "soliluna", "cache.db")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
