package cmd

import (
	"fmt"
	"runtime"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fitcheck version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fitcheck %s\n", version)
		fmt.Fprintf(out, "  built:   %s\n", buildTime)
		fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "  default: %s\n", config.DefaultBaseURL)
	},
}
