package cli

import (
	"github.com/spf13/cobra"

	"github.com/MHC32/momentum/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync agent and the local API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.MustOpenStorage()
		defer app.CloseStorage()

		app.InitServices()
		app.RestoreSession(cmd.Context())
		defer app.StopSync()

		app.MustListenAndServeHTTP()
		return nil
	},
}
