package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/reqkit/httpclient"
)

func methodCmds(a *app) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(httpclient.Methods))
	for _, m := range httpclient.Methods {
		cmds = append(cmds, newMethodCmd(a, m))
	}
	return cmds
}

// newMethodCmd builds the get, post, put and delete commands.
func newMethodCmd(a *app, method httpclient.Method) *cobra.Command {
	var (
		flags requestFlags
		query string
		fail  bool
	)

	cmd := &cobra.Command{
		Use:   strings.ToLower(method.String()) + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  urlArg,
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		opts, err := flags.options(cmd, a)
		if err != nil {
			return err
		}
		target, err := a.target(args[0])
		if err != nil {
			return err
		}
		req, err := httpclient.New(method, target, opts...)
		if err != nil {
			return err
		}

		p := newPrinter(cmd.OutOrStdout(), a.flags.verbose, a.flags.noColor)
		p.request(req)

		resp, err := req.Execute(cmd.Context())
		if err != nil {
			return err
		}
		if err := p.response(resp, query); err != nil {
			return err
		}
		if fail && !resp.IsSuccess() {
			return &exitError{code: ExitFailure, err: fmt.Errorf("%s returned %s", req, resp.Status)}
		}
		return nil
	})

	flags.register(cmd.Flags(), method.EnclosesEntity())
	cmd.Flags().StringVarP(&query, "query", "q", "", `Print only the value at this JSON path, e.g. "items.#.id"`)
	cmd.Flags().BoolVarP(&fail, "fail", "f", false, "Exit with status 1 on a non-2xx response")
	return cmd
}

// urlArg requires exactly one URL argument.
func urlArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError("%s requires exactly one URL argument, got %d", cmd.Name(), len(args))
	}
	return nil
}
