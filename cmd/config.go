package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JAlbrecht-svg/inkasso-console/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change the endpoint configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		st, err := settings.Open(cfg.Settings.Path, nil)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		endpoint := st.BaseURL()
		if cfg.API.BaseURL != "" {
			if err := st.SetOverride(cfg.API.BaseURL); err != nil {
				return fmt.Errorf("invalid --base-url: %w", err)
			}
			endpoint = st.BaseURL() + " (override)"
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), struct {
				Config
				Endpoint string `json:"endpoint"`
			}{cfg, st.BaseURL()})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Endpoint:        %s\n", endpoint)
		fmt.Fprintf(out, "Settings file:   %s\n", cfg.Settings.Path)
		fmt.Fprintf(out, "Token store:     system keyring, fallback %s\n", cfg.Token.Path)
		fmt.Fprintf(out, "Journal:         %s\n", cfg.Journal.Path)
		fmt.Fprintf(out, "Timeout:         %s\n", cfg.API.Timeout)
		fmt.Fprintf(out, "Change feed:     %s\n", dash(cfg.Redis.URL))
		fmt.Fprintf(out, "Search debounce: %s\n", cfg.UI.SearchDebounce)
		return nil
	},
}

var configSetEndpointCmd = &cobra.Command{
	Use:   "set-endpoint <url>",
	Short: "Save the API base URL",
	Long: `Save the API base URL. Whitespace, a trailing slash and a trailing /api
are removed. An unusable value clears the saved endpoint so the default
` + settings.DefaultBaseURL + ` is used again.

A running 'inkasso tui' picks the new endpoint up immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := settings.Open(GetConfig().Settings.Path, nil)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if err := st.SetBaseURL(args[0]); err != nil {
			return fmt.Errorf("endpoint %q rejected, using default %s: %w", args[0], st.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Endpoint set to %s\n", st.BaseURL())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetEndpointCmd)
}
