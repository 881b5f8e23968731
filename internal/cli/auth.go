package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/andy/invoicedesk/internal/config"
	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the API token",
	Long: `Store or remove the bearer token sent to the invoice server.

The token lives in the system keyring. INVOICEDESK_API_TOKEN overrides it.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API token in the system keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := promptForToken()
		if err != nil {
			return err
		}

		if err := appInstance.Keyring.SetToken(token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		fmt.Println("✓ API token stored")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !confirmPrompt(cmd, "Remove the stored API token?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}

		if err := appInstance.Keyring.DeleteToken(); err != nil && !ierr.IsNotFound(err) {
			return fmt.Errorf("failed to remove token: %w", err)
		}

		fmt.Fprintln(out, "✓ API token removed")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case os.Getenv(config.EnvAPIToken) != "":
			fmt.Fprintln(out, "Token: from INVOICEDESK_API_TOKEN")
		case appInstance.Config.API.Token != "":
			fmt.Fprintln(out, "Token: stored in keyring")
		default:
			fmt.Fprintln(out, "Token: none (requests are sent unauthenticated)")
		}
		fmt.Fprintf(out, "Server: %s\n", appInstance.Config.API.BaseURL)
		return nil
	},
}

// promptForToken reads a token without echo
func promptForToken() (string, error) {
	fmt.Print("API token: ")

	token, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after input
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	trimmed := strings.TrimSpace(string(token))
	if trimmed == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	return trimmed, nil
}

// confirmPrompt asks a yes/no question on the command's input
func confirmPrompt(cmd *cobra.Command, message string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", message)
	reader := bufio.NewReader(cmd.InOrStdin())
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}
