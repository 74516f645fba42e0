package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the request profiles from the config",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range a.settings.ProfileNames() {
				p, err := a.settings.Profile(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\ttimeout=%s", name, p.Timeout)
				if p.BaseURL != "" {
					fmt.Fprintf(out, "\tbase_url=%s", p.BaseURL)
				}
				if p.TLS.IsEnabled() {
					fmt.Fprint(out, "\ttls=custom")
				}
				if p.Auth.Username != "" || p.Auth.BearerToken != "" {
					fmt.Fprint(out, "\tauth=yes")
				}
				fmt.Fprintln(out)
			}
			return nil
		}),
	}
}
