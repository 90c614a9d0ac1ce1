// Package cli provides the command-line interface for the quote engine.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quotewatch/internal/config"
	"quotewatch/internal/prefs"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared by commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Prefs  *prefs.Store
}

// Close releases the app's resources after the command ran.
func (a *App) Close() {
	if a.Prefs != nil {
		if err := a.Prefs.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("closing preference store")
		}
		a.Prefs = nil
	}
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// The preference store is optional: a broken local db degrades the CLI,
	// it does not stop it.
	store, err := prefs.NewStore(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("preference store unavailable")
	} else {
		app.Prefs = store
	}

	rootCmd := &cobra.Command{
		Use:   "quotewatch",
		Short: "Market-data series cache and alert engine",
		Long: `quotewatch ingests streaming price data into a deduplicated multi-timeframe
candle cache and evaluates user-defined alert conditions against live quotes.

Use 'quotewatch run' to start the engine with the simulated feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/quotewatch)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newPrefsCmd(app))
	rootCmd.AddCommand(newAlertsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quotewatch v%s\n", Version)
		},
	}
}
