// Package main provides the b CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/buildshortcut/shortcut/internal/logging"
	"github.com/buildshortcut/shortcut/pkg/config"
	"github.com/buildshortcut/shortcut/pkg/failure"
	"github.com/buildshortcut/shortcut/pkg/oracle"
)

var version = "dev"

// streams are the standard streams a command talks to.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// globalOpts are the persistent flags shared by every subcommand.
type globalOpts struct {
	configPath string
	wsdl       string
	logLevel   string
	logFormat  string
}

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, s streams) int {
	root := newRootCmd(s)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(s.err, "Error: %v\n", err)
	for _, h := range failure.HintsOf(err) {
		fmt.Fprintf(s.err, "  Hint: %s\n", h)
	}
	return 1
}

func newRootCmd(s streams) *cobra.Command {
	g := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "b",
		Short: "Build helper for multi-project Maven checkouts",
		Long: `b wraps the build tool of a multi-project checkout. Its shortcut command asks
the change-specific-dependencies service which projects a change affects and
builds only those.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(s.in)
	rootCmd.SetOut(s.out)
	rootCmd.SetErr(s.err)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to config file (default: .shortcut/config.yaml in the working directory or an ancestor)")
	pf.StringVar(&g.wsdl, "wsdl", "", "WSDL URL of the dependency service (overrides "+config.EnvWSDL+")")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (default warn)")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: text or json (default text)")

	rootCmd.AddCommand(
		newShortcutCmd(g, s),
		newProjectsCmd(g, s),
		newScenariosCmd(g, s),
		newRunsCmd(g, s),
	)
	return rootCmd
}

// env is the per-invocation state every command starts from.
type env struct {
	cwd    string
	cfg    *config.Config
	logger *slog.Logger
}

// setup resolves configuration with precedence flag > environment > file > default.
func setup(g *globalOpts, s streams) (*env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := loadConfig(g.configPath, cwd, s.err)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.Oracle.WSDL = firstNonEmpty(g.wsdl, cfg.Oracle.WSDL)
	cfg.Log.Level = firstNonEmpty(g.logLevel, cfg.Log.Level)
	cfg.Log.Format = firstNonEmpty(g.logFormat, cfg.Log.Format)

	logger, err := logging.New(s.err, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &env{cwd: cwd, cfg: cfg, logger: logger}, nil
}

// loadConfig reads an explicit config file, or the nearest one above cwd.
// A broken discovered file is reported and replaced by defaults.
func loadConfig(explicit, cwd string, warn io.Writer) (*config.Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.Load(explicit)
	}
	cfgFile := config.FindConfigFile(cwd)
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(warn, "Warning: failed to load config: %v\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func connectOracle(ctx context.Context, e *env) (*oracle.Client, error) {
	return oracle.Connect(ctx, oracle.Options{
		WSDL:         e.cfg.Oracle.WSDL,
		Namespace:    e.cfg.Oracle.Namespace,
		Timeout:      e.cfg.OracleTimeout(),
		ProbeTimeout: e.cfg.ProbeTimeout(),
		Logger:       e.logger,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
