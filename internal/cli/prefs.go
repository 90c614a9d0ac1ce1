package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quotewatch/internal/prefs"
)

func newPrefsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage persisted preferences",
		Long:  "View and change the chart selection and watchlist persisted across sessions.",
	}

	cmd.PersistentFlags().String("user", "local", "user the preference belongs to")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the saved chart selection and watchlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Prefs == nil {
				return fmt.Errorf("preference store unavailable")
			}
			user, _ := cmd.Flags().GetString("user")

			sel, err := app.Prefs.GetSelection(cmd.Context(), user)
			switch {
			case errors.Is(err, prefs.ErrNoSelection):
				fmt.Println("no saved selection")
			case err != nil:
				return err
			default:
				fmt.Printf("selection: %s @ %s (saved %s)\n",
					sel.Symbol, sel.Timeframe, sel.UpdatedAt.Format("2006-01-02 15:04"))
			}

			watch, err := app.Prefs.Watchlist(cmd.Context(), user)
			if err != nil {
				return err
			}
			for _, sym := range watch {
				fmt.Printf("watch: %s\n", sym)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "select <symbol> <timeframe>",
		Short: "Save the chart selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Prefs == nil {
				return fmt.Errorf("preference store unavailable")
			}
			user, _ := cmd.Flags().GetString("user")
			return app.Prefs.SaveSelection(cmd.Context(), user, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch <symbol>",
		Short: "Add a symbol to the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Prefs == nil {
				return fmt.Errorf("preference store unavailable")
			}
			user, _ := cmd.Flags().GetString("user")
			return app.Prefs.AddWatch(cmd.Context(), user, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unwatch <symbol>",
		Short: "Remove a symbol from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Prefs == nil {
				return fmt.Errorf("preference store unavailable")
			}
			user, _ := cmd.Flags().GetString("user")
			return app.Prefs.RemoveWatch(cmd.Context(), user, args[0])
		},
	})

	return cmd
}
