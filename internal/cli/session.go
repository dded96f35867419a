package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MHC32/momentum/internal/app"
	"github.com/MHC32/momentum/internal/services"
)

const passwordEnv = "MOMENTUM_PASSWORD"

var (
	loginEmail    string
	loginPassword string
	loginName     string
	loginRegister bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	Long: `Log in to the Momentum backend and persist the session for later commands.

The password is read from --password or the MOMENTUM_PASSWORD environment
variable.

Examples:
  momentumctl login --email ada@example.com
  momentumctl login --register --name Ada --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), false, func() error {
			if err := app.Sessions().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.Flags().StringVar(&loginName, "name", "", "display name, with --register")
	loginCmd.Flags().BoolVar(&loginRegister, "register", false, "create the account first")
	_ = loginCmd.MarkFlagRequired("email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		return fmt.Errorf("password required: pass --password or set %s", passwordEnv)
	}

	return withServices(cmd.Context(), false, func() error {
		sessions := app.Sessions()
		if loginRegister {
			session, err := sessions.Register(cmd.Context(), services.RegisterParams{
				Name:     loginName,
				Email:    loginEmail,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("register failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered as %s <%s>\n", session.User.Name, session.User.Email)
			return nil
		}

		session, err := sessions.Login(cmd.Context(), services.LoginParams{
			Email:    loginEmail,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", session.User.Name, session.User.Email)
		return nil
	})
}
