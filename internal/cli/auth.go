// auth.go implements the session commands: login, logout, register and
// status.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pictoria-app/pictoria/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credential",
	Long: `Exchange an email and password for a credential. The credential is
persisted in the config directory and used by every other command.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the server. Registration does not sign in;
run 'pictoria login' afterwards.`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var emailFlag string

func init() {
	loginCmd.Flags().StringVar(&emailFlag, "email", "", "Account email (prompted when empty)")
	registerCmd.Flags().StringVar(&emailFlag, "email", "", "Account email (prompted when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	e.hydrate(cmd)

	email, password, err := readAccount(cmd)
	if err != nil {
		return err
	}

	credential, err := e.store.Login(cmd.Context(), email, password)
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	if id, err := session.ParseIdentity(credential); err == nil && id.Subject != "" {
		fmt.Fprintf(out, "Logged in as %s.\n", id.Subject)
		return nil
	}
	fmt.Fprintln(out, "Logged in.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	e.hydrate(cmd)

	if err := e.store.Logout(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	email, password, err := readAccount(cmd)
	if err != nil {
		return err
	}

	if err := e.store.Register(cmd.Context(), email, password); err != nil {
		return describe(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Account created. Log in with: pictoria login")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	e.hydrate(cmd)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server: %s\n", e.cfg.APIURL)

	credential := e.store.Credential()
	if credential == "" {
		fmt.Fprintln(out, "Logged out.")
		return nil
	}

	id, err := session.ParseIdentity(credential)
	if err != nil {
		// Opaque tokens are fine; the server decides.
		fmt.Fprintln(out, "Logged in.")
		return nil
	}
	fmt.Fprintf(out, "Logged in as %s.\n", id.Subject)
	if !id.ExpiresAt.IsZero() {
		expiry := id.ExpiresAt.Local().Format(time.RFC1123)
		if id.Expired(time.Now()) {
			fmt.Fprintf(out, "Credential expired %s.\n", expiry)
		} else {
			fmt.Fprintf(out, "Credential expires %s.\n", expiry)
		}
	}
	return nil
}

func readAccount(cmd *cobra.Command) (email, password string, err error) {
	p := newPrompter(cmd)
	email = emailFlag
	if email == "" {
		if email, err = p.line("Email: "); err != nil {
			return "", "", err
		}
	}
	if password, err = p.secret("Password: "); err != nil {
		return "", "", err
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}
