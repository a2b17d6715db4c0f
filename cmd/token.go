package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JAlbrecht-svg/inkasso-console/internal/credentials"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API bearer token",
	Long: `Manage the bearer token sent with every request.

The token is kept in the system keyring (Keychain, Credential Manager or
Secret Service). Where no keyring is available it falls back to a private
file under the user config directory. INKASSO_API_TOKEN, when set, takes
precedence over the stored token.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a token (read from the terminal without echo, or from stdin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readToken(cmd)
		if err != nil {
			return err
		}
		if token == "" {
			return errors.New("token must not be empty")
		}
		where, err := tokenChain(GetConfig()).SaveTo(token)
		if err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token %s saved to %s\n", credentials.Mask(token), credentials.Describe(where))
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where the token comes from, masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		token, from, err := tokenChain(GetConfig()).Find()
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		if token == "" {
			fmt.Fprintln(out, "No token stored. Run 'inkasso token set'.")
			return nil
		}
		fmt.Fprintf(out, "%s (from %s)\n", credentials.Mask(token), credentials.Describe(from))
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored token from the keyring and the credentials file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tokenChain(GetConfig()).Delete(); err != nil {
			return fmt.Errorf("deleting token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token deleted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenShowCmd, tokenDeleteCmd)
}

func readToken(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		errOut := cmd.ErrOrStderr()
		fmt.Fprint(errOut, "API token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
