// Package cli implements the storefront command line. Every command loads
// configuration, bootstraps the session from the stored token, performs one
// call and prints the JSON result.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartretail/storefront/internal/app"
	"github.com/smartretail/storefront/internal/infrastructure/config"
	"github.com/smartretail/storefront/pkg/logger"
)

// skipApp marks commands that run without the client stack.
const skipApp = "skip-app"

// Option customises the command tree.
type Option func(*runtime)

// WithConfig uses cfg instead of reading the environment.
func WithConfig(cfg *config.Config) Option {
	return func(r *runtime) {
		r.loadConfig = func(context.Context) (*config.Config, error) { return cfg, nil }
	}
}

// WithAppOptions forwards options to app.New.
func WithAppOptions(opts ...app.Option) Option {
	return func(r *runtime) { r.appOpts = append(r.appOpts, opts...) }
}

// WithOutput redirects command output.
func WithOutput(out io.Writer) Option {
	return func(r *runtime) { r.out = out }
}

type runtime struct {
	loadConfig func(context.Context) (*config.Config, error)
	appOpts    []app.Option
	out        io.Writer

	logLevel string
	cfg      *config.Config
	app      *app.App
}

// Run executes the command line described by args and releases every
// resource it opened, whatever the outcome.
func Run(ctx context.Context, args []string, opts ...Option) error {
	rt := &runtime{loadConfig: config.Load}
	for _, opt := range opts {
		opt(rt)
	}
	defer rt.close()

	root := rt.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (rt *runtime) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Command line client for the storefront services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
	}
	if rt.out != nil {
		root.SetOut(rt.out)
	}
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override LOG_LEVEL (trace, debug, info, warn, error)")

	root.AddCommand(
		rt.loginCommand(),
		rt.registerCommand(),
		rt.logoutCommand(),
		rt.whoamiCommand(),
		rt.usersCommand(),
		rt.productsCommand(),
		rt.ordersCommand(),
		rt.paymentsCommand(),
		rt.analyticsCommand(),
		rt.devserverCommand(),
	)
	return root
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := rt.loadConfig(ctx)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	level := cfg.LogLevel
	if rt.logLevel != "" {
		level = rt.logLevel
	}
	log := logger.Init(logger.Options{Level: level, Pretty: cfg.LogPretty, Output: cmd.ErrOrStderr()})

	if cmd.Annotations[skipApp] != "" {
		return nil
	}
	a, err := app.New(ctx, cfg, log, rt.appOpts...)
	if err != nil {
		return fmt.Errorf("start client: %w", err)
	}
	rt.app = a
	a.Session.Bootstrap(ctx)
	return nil
}

func (rt *runtime) close() {
	if rt.app == nil {
		return
	}
	if err := rt.app.Close(); err != nil {
		log := logger.Component("cli")
		log.Warn().Err(err).Msg("close client")
	}
	rt.app = nil
}

// printJSON writes v indented to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// idArg parses the positional argument at i as a positive id.
func idArg(args []string, i int) (int, error) {
	id, err := strconv.Atoi(args[i])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[i])
	}
	return id, nil
}
