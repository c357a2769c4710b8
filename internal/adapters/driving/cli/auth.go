package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/services"
)

var (
	loginSave bool

	registerFullName    string
	registerEmail       string
	registerCompany     string
	registerDesignation string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check account credentials",
	Long: `Log in to the analysis service and report the account.

Sessions are held in memory only; every command logs in again with the
configured account. Use --save to remember the username in the config file.

Examples:
  insightgen login --username alice
  INSIGHTGEN_PASSWORD=secret insightgen login -u alice --save`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the analysis service. Registration does not log in.

Missing fields are prompted for.

Example:
  insightgen register -u alice --full-name "Alice Smith" --email alice@example.com`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session on the server",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "remember the username in the config file")

	registerCmd.Flags().StringVar(&registerFullName, "full-name", "", "full name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	registerCmd.Flags().StringVar(&registerCompany, "company", "", "company (optional)")
	registerCmd.Flags().StringVar(&registerDesignation, "designation", "", "job title (optional)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if err := requireServices(sessionManager, settingsService); err != nil {
		return err
	}

	p := newPrompter(cmd)
	username := resolveUsername()
	if username == "" {
		username = p.Line("Username", "")
	}
	session, err := sessionManager.Login(cmd.Context(), username, p.AccountPassword(username))
	if err != nil {
		return err
	}

	cmd.Printf("Logged in as %s\n", session.User.DisplayName)
	if session.ExpiresKnown {
		cmd.Printf("Token expires %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
	}

	if loginSave {
		if err := settingsService.Set(services.KeyUsername, username); err != nil {
			return fmt.Errorf("saving username: %w", err)
		}
		cmd.Printf("Saved username to %s\n", settingsService.ConfigPath())
	}
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	if err := requireServices(sessionManager); err != nil {
		return err
	}

	p := newPrompter(cmd)
	profile := domain.RegistrationProfile{
		Username:    globalOpts.Username,
		FullName:    registerFullName,
		Email:       registerEmail,
		Company:     registerCompany,
		Designation: registerDesignation,
	}
	if profile.Username == "" {
		profile.Username = p.Line("Username", "")
	}
	if profile.FullName == "" {
		profile.FullName = p.Line("Full name", "")
	}
	if profile.Email == "" {
		profile.Email = p.Line("Email", "")
	}
	profile.Password = p.AccountPassword(profile.Username)

	if err := sessionManager.Register(cmd.Context(), profile); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			cmd.Println("Registration was rejected:")
			for _, f := range verr.Fields {
				if f.Field == "" {
					cmd.Printf("  - %s\n", f.Message)
					continue
				}
				cmd.Printf("  - %s: %s\n", f.Field, f.Message)
			}
		}
		return err
	}

	cmd.Printf("Account %s created. Log in with: insightgen login -u %s\n", profile.Username, profile.Username)
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if err := requireServices(sessionManager); err != nil {
		return err
	}
	if err := requireSession(cmd); err != nil {
		return err
	}
	if !sessionManager.Verify(cmd.Context()) {
		return fmt.Errorf("%w: the server rejected the session", domain.ErrNotAuthenticated)
	}

	session, _ := sessionManager.Current()
	cmd.Printf("%s", session.User.DisplayName)
	if session.User.ID != "" {
		cmd.Printf(" (id %s)", session.User.ID)
	}
	cmd.Println()
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if err := requireServices(sessionManager); err != nil {
		return err
	}
	if err := requireSession(cmd); err != nil {
		return err
	}
	sessionManager.Logout(cmd.Context())
	cmd.Println("Logged out")
	return nil
}
