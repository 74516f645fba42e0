package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/reqkit/config"
	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/version"
)

const appName = "reqkit"

// httpLogger names the registered logger handed to every request.
const httpLogger = "httpclient"

// Telemetry starters, replaced in tests.
var (
	initTracer = observability.InitTracer
	initMeter  = observability.InitMeter
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	profile    string
	logLevel   string
	noColor    bool
	verbose    bool
}

// app holds the state built once per invocation.
type app struct {
	flags    globalFlags
	settings *config.Settings
	log      *logger.Logger
	metrics  *observability.ClientMetrics
	shutdown []func(context.Context) error
}

// NewRootCmd builds the reqkit command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     appName,
		Short:   "Send one-off HTTP requests and wait for endpoints",
		Version: version.GetShortVersion(),
		Long: `reqkit sends a single HTTP request with basic or bearer auth, cookies,
custom trust stores and redirect control, or polls an endpoint until it
answers with the expected status or body. Request defaults come from
named profiles in reqkit.yml and REQKIT_* environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd) },
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default ./reqkit.yml, ./config/reqkit.yml or the user config dir)")
	pf.StringVar(&a.flags.envFile, "env-file", "", ".env file to load before reading REQKIT_* variables")
	pf.StringVarP(&a.flags.profile, "profile", "p", "", "request profile from the config file")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Print request and response headers")

	for _, cmd := range methodCmds(a) {
		root.AddCommand(cmd)
	}
	root.AddCommand(newWaitCmd(a))
	root.AddCommand(newProfilesCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", ErrorIcon(noColorRequested(root)), err)
	}
	return exitCode(err)
}

func noColorRequested(root *cobra.Command) bool {
	v, _ := root.PersistentFlags().GetBool("no-color")
	return v
}

// setup loads settings and starts telemetry providers.
func (a *app) setup(cmd *cobra.Command) error {
	opts := []config.LoaderOption{config.WithLogger(logger.Nop())}
	if a.flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.flags.configFile))
	}
	if a.flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.flags.envFile))
	}

	settings, err := config.Load(appName, opts...)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		settings.Logging.Level = a.flags.logLevel
		if err := settings.Logging.Validate(); err != nil {
			return usageError("%v", err)
		}
	}
	if a.flags.noColor {
		settings.Logging.NoColor = true
	}
	a.settings = settings
	a.log = logger.NewWithWriter(&settings.Logging, settings.Name, cmd.ErrOrStderr())
	logger.SetGlobalLogger(a.log)
	logger.Register(httpLogger, a.log)

	return a.startTelemetry(cmd.Context())
}

// startTelemetry starts the configured providers. On failure the ones
// already running are shut down, since commands never run after a failed setup.
func (a *app) startTelemetry(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			a.teardown()
		}
	}()

	if a.settings.Tracing.Enabled {
		tp, err := initTracer(ctx, a.settings.Tracing)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, tp.Shutdown)
	}
	if a.settings.Metrics.Enabled {
		mp, err := initMeter(ctx, a.settings.Metrics)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, mp.Shutdown)
		if a.metrics, err = observability.NewClientMetrics(observability.Meter(mp)); err != nil {
			return err
		}
	}
	return nil
}

// run wraps a command so telemetry is flushed on every path.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		return fn(cmd, args)
	}
}

func (a *app) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, fn := range a.shutdown {
		if err := fn(ctx); err != nil {
			a.log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}
	a.shutdown = nil
	logger.Unregister(httpLogger)
}
