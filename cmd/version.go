package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	appVersion string
	buildTime  string
)

// SetVersion records build metadata; it also enables the --version flag.
func SetVersion(v, bt string) {
	appVersion = v
	buildTime = bt
	rootCmd.Version = v
}

func versionString() string {
	if appVersion == "" {
		return "dev"
	}
	return appVersion
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := struct {
			Version   string `json:"version"`
			BuildTime string `json:"build_time,omitempty"`
			Go        string `json:"go"`
			Platform  string `json:"platform"`
		}{versionString(), buildTime, runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, info)
		}
		fmt.Fprintf(out, "inkasso %s (%s, %s)\n", info.Version, info.Go, info.Platform)
		if info.BuildTime != "" {
			fmt.Fprintf(out, "Build time: %s\n", info.BuildTime)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
