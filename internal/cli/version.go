package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/reqkit/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "reqkit version %s\n", version.GetShortVersion())
			if info.GoVersion != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.GoVersion)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User-Agent: %s\n", version.UserAgent())
		},
	}
}
