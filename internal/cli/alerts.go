package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect the configured alert rules",
		Long:  "Alert rules are declared in config.toml under [[alerts]] and load when the engine starts.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the configured alert rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(app.Config.Alerts) == 0 {
				fmt.Println("no alert rules configured")
				return nil
			}
			for _, rule := range app.Config.Alerts {
				fmt.Printf("%s (user %s)", rule.ID, rule.User)
				if rule.Name != "" {
					fmt.Printf("  %q", rule.Name)
				}
				if rule.Cooldown > 0 {
					fmt.Printf("  cooldown %s", rule.Cooldown)
				}
				fmt.Println()
				for _, c := range rule.Conditions {
					fmt.Printf("  %s %s %s %g\n", c.Symbol, c.Type, c.Operator, c.Value)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, rule := range app.Config.Alerts {
				if rule.ID != args[0] {
					continue
				}
				alert := rule.ToAlert()
				fmt.Printf("id:       %s\n", alert.ID)
				fmt.Printf("user:     %s\n", alert.UserID)
				fmt.Printf("name:     %s\n", alert.Name)
				fmt.Printf("cooldown: %s\n", alert.Cooldown)
				for _, c := range alert.Conditions {
					fmt.Printf("when:     %s %s %s %g\n", c.Symbol, c.Type, c.Operator, c.Value)
				}
				return nil
			}
			return fmt.Errorf("no alert rule %q in config", args[0])
		},
	})

	return cmd
}
