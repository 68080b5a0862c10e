package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/humorloos/feierabend/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to a Google account",
		Long: `Authorize access to a Google account and store the OAuth token locally.

The OAuth client credentials are read from the GOOGLE_CLIENT_ID and
GOOGLE_CLIENT_SECRET environment variables. Open the printed URL in a
browser, grant access, and paste the authorization code back here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("GOOGLE_CLIENT_ID") == "" || os.Getenv("GOOGLE_CLIENT_SECRET") == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
			}

			fmt.Printf("Open the following URL in a browser and authorize access:\n\n  %s\n\n", google.GetAuthURL())
			fmt.Print("Enter authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
				return err
			}
			fmt.Printf("Token stored for account %q\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name to store the token under")

	return cmd
}
