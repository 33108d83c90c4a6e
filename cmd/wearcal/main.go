package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wardrobeapp/wearcal/internal/advisor"
	"github.com/wardrobeapp/wearcal/internal/closet"
	"github.com/wardrobeapp/wearcal/internal/config"
	"github.com/wardrobeapp/wearcal/internal/scheduler"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "wearcal",
		Short: "wearcal — outfit calendar scheduling for your wardrobe",
		Long:  "wearcal plans outfits onto occasions and daily slots, warns before you re-wear recently used items, and renders week/month calendar views.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		addCmd(),
		checkCmd(),
		weekCmd(),
		monthCmd(),
		occasionsCmd(),
		entriesCmd(),
		exportICSCmd(),
		serveCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newStore(logger *slog.Logger) closet.Store {
	return closet.NewRESTStore(cfg.Closet.BaseURL, cfg.Closet.AuthToken, logger)
}

func newEngine(st closet.Store, logger *slog.Logger) *scheduler.Engine {
	return scheduler.New(st, advisor.New(st, logger), logger)
}

// resolveUser returns the acting user: the --user flag when given,
// otherwise the configured default.
func resolveUser(flagUser string) (string, error) {
	if flagUser != "" {
		return flagUser, nil
	}
	if cfg.Closet.UserID != "" {
		return cfg.Closet.UserID, nil
	}
	return "", fmt.Errorf("no user set: pass --user or configure closet.user_id")
}
