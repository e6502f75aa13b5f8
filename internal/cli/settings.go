package cli

import (
	"fmt"
	"strings"

	"github.com/aristath/bankmirror/internal/modules/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change server settings",
	}
	cmd.AddCommand(newSettingsShowCmd(a), newSettingsSetCmd(a))
	return cmd
}

func newSettingsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the server configuration (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			cfg, err := client.Settings(cmd.Context())
			if err != nil {
				return err
			}
			writeSettings(cmd, cfg)
			return nil
		},
	}
}

func newSettingsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Update settings (" + strings.Join(settings.AllowedKeys, ", ") + ")",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parseAssignments(args)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			cfg, err := client.UpdateSettings(cmd.Context(), update)
			if err != nil {
				return err
			}
			writeSettings(cmd, cfg)
			return nil
		},
	}
}

// parseAssignments turns KEY=VALUE arguments into a settings update.
// Keys are validated by the server.
func parseAssignments(args []string) (settings.SettingsUpdate, error) {
	update := settings.SettingsUpdate{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", arg)
		}
		v := value
		update[key] = &v
	}
	return update, nil
}

func writeSettings(cmd *cobra.Command, cfg *settings.AppConfiguration) {
	rows := [][]string{
		{settings.KeyAPIKey, deref(cfg.APIKey)},
		{settings.KeyUserID, deref(cfg.UserID)},
		{settings.KeyAccountID, deref(cfg.AccountID)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), RenderTable([]string{"Key", "Value"}, rows))
}
