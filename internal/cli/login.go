package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and store them in the config file",
		Long: `login checks the API URL and key against /api/system/status and writes
them to the config file with owner-only permissions. Without --api-key the key
is read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, file, err := a.settings()
			if err != nil {
				return err
			}

			if s.APIKey == "" {
				fmt.Fprint(cmd.OutOrStdout(), "API key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read API key: %w", err)
				}
				s.APIKey = strings.TrimSpace(line)
			}
			if s.APIKey == "" {
				return fmt.Errorf("API key must not be empty")
			}

			if _, err := NewAPIClient(s).Status(cmd.Context()); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			path, err := a.path()
			if err != nil {
				return err
			}
			file.APIURL = s.APIURL
			file.APIKey = s.APIKey
			if err := SaveFileConfig(path, file); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s; credentials saved to %s\n", s.APIURL, path)
			return nil
		},
	}
}
