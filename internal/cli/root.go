// Package cli implements momentumctl, a command line client driving the
// same sync agent as the local API.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MHC32/momentum/internal/app"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "momentumctl",
		Short: "Momentum sync agent",
		Long: `momentumctl keeps a local copy of your Momentum tasks, goals and projects
in sync with the backend.

Run "momentumctl serve" for the long-running agent and local API, or use the
other commands for one-shot access.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := os.Setenv("MOMENTUM_CONFIG", configPath); err != nil {
					return err
				}
			}
			app.InitDefaultLogger()
			app.MustReadEnv()
			app.MustInitApplicationLogger()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(goalsCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withServices opens storage and wires the services for a one-shot
// command. When requireSession is set the persisted session is resumed
// first, which also loads the current server state.
func withServices(ctx context.Context, requireSession bool, fn func() error) error {
	app.MustOpenStorage()
	defer app.CloseStorage()

	app.InitServices()
	defer app.StopSync()

	if requireSession {
		app.RestoreSession(ctx)
		if _, ok := app.Sessions().Current(); !ok {
			return fmt.Errorf("not logged in, run momentumctl login")
		}
	}
	return fn()
}
