package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/reqkit/httpclient"
	"github.com/kbukum/reqkit/waiting"
)

func newWaitCmd(a *app) *cobra.Command {
	var (
		flags    requestFlags
		status   int
		contains []string
		within   time.Duration
		interval time.Duration
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "wait URL",
		Short: "Poll a URL with GET until it returns the expected status or body",
		Example: `  reqkit wait http://localhost:8080/health
  reqkit wait https://api.internal/ready --status 204 --within 2m -k
  reqkit wait http://localhost:9200 --contains '"status":"green"'`,
		Args: urlArg,
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
		req, err := httpclient.New(httpclient.MethodGet, target, opts...)
		if err != nil {
			return err
		}

		var w *waiting.Waiter
		switch {
		case len(contains) > 0 && cmd.Flags().Changed("status"):
			w = req.Waiters().Until(fmt.Sprintf("to return %d containing %q", status, contains), func(resp *httpclient.Response) bool {
				return resp.StatusCode == status && containsAll(resp.String(), contains)
			})
		case len(contains) > 0:
			w = req.Waiters().ResponseContains(contains...)
		default:
			w = req.Waiters().Code(status)
		}
		w = w.Timeout(within).Interval(interval)
		if failFast {
			w = w.FailFast()
		}

		start := time.Now()
		if err := w.Wait(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s ready after %s\n",
			SuccessIcon(a.flags.noColor), req, time.Since(start).Round(time.Millisecond))
		return nil
	})

	flags.register(cmd.Flags(), false)
	cmd.Flags().IntVarP(&status, "status", "s", http.StatusOK, "Expected status code")
	cmd.Flags().StringArrayVarP(&contains, "contains", "c", nil, "Text the body must contain (can be used multiple times)")
	cmd.Flags().DurationVarP(&within, "within", "w", waiting.DefaultTimeout, "Give up after this long")
	cmd.Flags().DurationVarP(&interval, "interval", "i", waiting.DefaultInterval, "Delay between attempts")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first connection or TLS error")
	return cmd
}

func containsAll(body string, strs []string) bool {
	for _, s := range strs {
		if !strings.Contains(body, s) {
			return false
		}
	}
	return true
}
