// Package cli implements bankctl, the command-line client of the bank
// mirror REST API.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// app carries the global flags and resolved settings shared by commands.
type app struct {
	apiURL     string
	apiKey     string
	configPath string
	bankToken  string
	getenv     func(string) string
	out        io.Writer
}

// settings resolves flags, environment and config file.
func (a *app) settings() (Settings, *FileConfig, error) {
	path, err := a.path()
	if err != nil {
		return Settings{}, nil, err
	}
	file, err := LoadFileConfig(path)
	if err != nil {
		return Settings{}, nil, err
	}

	s := Resolve(a.apiURL, a.apiKey, file, a.getenv)
	if a.bankToken != "" {
		headers := make(map[string]string, len(s.BankHeaders)+1)
		for k, v := range s.BankHeaders {
			headers[k] = v
		}
		headers["Authorization"] = "Bearer " + a.bankToken
		s.BankHeaders = headers
	}
	return s, file, nil
}

func (a *app) path() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return DefaultConfigPath()
}

// client returns an API client, failing early when no key is known.
func (a *app) client() (*APIClient, error) {
	s, _, err := a.settings()
	if err != nil {
		return nil, err
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("no API key: pass --api-key, set %s, or run 'bankctl login'", EnvCLIKey)
	}
	return NewAPIClient(s), nil
}

// NewRootCmd builds the bankctl command tree writing to out.
func NewRootCmd(out io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv, out: out}

	root := &cobra.Command{
		Use:   "bankctl",
		Short: "bankctl - command-line client for the bank mirror API",
		Long: `bankctl reads cached balances and transactions from a bank mirror server,
triggers refreshes, manages stored orders and server settings.

Connection settings resolve as: flags, then BANK_API_URL and
BANK_API_CLI_KEY/BANK_API_KEY, then the config file written by 'bankctl login'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (default "+DefaultAPIURL+")")
	root.PersistentFlags().StringVar(&a.apiKey, "api-key", "", "API key sent as X-API-Key")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/bankmirror/config.yaml)")
	root.PersistentFlags().StringVar(&a.bankToken, "bank-token", "", "bank OAuth access token forwarded upstream on refresh")

	root.AddCommand(
		newLoginCmd(a),
		newBalancesCmd(a),
		newTransactionsCmd(a),
		newOrdersCmd(a),
		newSyncLogsCmd(a),
		newSettingsCmd(a),
	)
	return root
}

// Execute runs bankctl with the process arguments.
func Execute(version string) error {
	root := NewRootCmd(os.Stdout, os.Getenv)
	root.Version = version
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
