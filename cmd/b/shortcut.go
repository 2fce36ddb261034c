package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/buildshortcut/shortcut/internal/report"
	"github.com/buildshortcut/shortcut/pkg/build"
	"github.com/buildshortcut/shortcut/pkg/config"
	"github.com/buildshortcut/shortcut/pkg/failure"
	"github.com/buildshortcut/shortcut/pkg/scope"
	"github.com/buildshortcut/shortcut/pkg/surface"
)

// legacyFlags maps historical spellings to current flags.
var legacyFlags = map[string]string{
	"-pn":            "--projects",
	"--projectNames": "--projects",
}

func newShortcutCmd(g *globalOpts, s streams) *cobra.Command {
	var opts shortcutOpts

	cmd := &cobra.Command{
		Use:     "shortcut [flags] [build tool arguments...]",
		Aliases: []string{"s"},
		Short:   "Use build shortcuts to build only what is affected by a change scenario",
		Long: `Determines the changed project (from the nearest pom.xml, or --projects), asks
for the applicable change scenario of each, resolves every project affected by
those scenarios and runs the build tool restricted to them.

Arguments the command does not know, flags included, are passed to the build
tool in their original order. Everything after "--" is passed unchanged.`,
		Example: `  b shortcut clean install
  b s -p xs-generation,xs-frontend -v -DskipTests install
  b shortcut --dry-run --output json`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := shortcutFlags(cmd)
			known, passthrough := splitArgs(fs, args)
			if err := fs.Parse(known); err != nil {
				return err
			}
			if help, _ := fs.GetBool("help"); help {
				return cmd.Help()
			}
			opts.passthrough = passthrough
			return runShortcut(cmd.Context(), g, opts, s)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.projects, "projects", "p", "", "Comma-separated projects to treat as changed instead of the current one")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Print the selected scenarios and the resolved dependencies")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Resolve the scope and print it without running the build tool")
	f.StringVar(&opts.output, "output", "text", "Output format for the resolved scope: text, json or markdown")
	f.StringVar(&opts.reportSink, "report", "", "Publish a run report to a directory, file://, s3://, gs:// or postgres:// target")

	return cmd
}

type shortcutOpts struct {
	projects    string
	verbose     bool
	dryRun      bool
	output      string
	reportSink  string
	passthrough []string
}

// shortcutFlags returns the command's own flags merged with the inherited
// persistent ones, since flag parsing is done by hand.
func shortcutFlags(cmd *cobra.Command) *pflag.FlagSet {
	fs := cmd.Flags()
	fs.AddFlagSet(cmd.InheritedFlags())
	return fs
}

// splitArgs separates the tokens fs knows from those meant for the build
// tool, keeping both in their original order. Multi-letter single-dash
// tokens such as -pl or -am always belong to the build tool.
func splitArgs(fs *pflag.FlagSet, args []string) (known, passthrough []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			passthrough = append(passthrough, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			passthrough = append(passthrough, arg)
			continue
		}

		name, value, inline := strings.Cut(arg, "=")
		if repl, ok := legacyFlags[name]; ok {
			name = repl
			arg = name
			if inline {
				arg += "=" + value
			}
		}

		var flag *pflag.Flag
		switch {
		case strings.HasPrefix(name, "--"):
			flag = fs.Lookup(name[2:])
		case len(name) == 2:
			flag = fs.ShorthandLookup(name[1:])
		}
		if flag == nil {
			passthrough = append(passthrough, args[i])
			continue
		}

		known = append(known, arg)
		if !inline && flag.NoOptDefVal == "" && i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}
	return known, passthrough
}

// parseProjectList splits a comma-separated list, dropping blanks.
func parseProjectList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runShortcut(ctx context.Context, g *globalOpts, opts shortcutOpts, s streams) error {
	e, err := setup(g, s)
	if err != nil {
		return err
	}
	renderer, err := surface.NewRenderer(opts.output, e.cfg.Build.Tool)
	if err != nil {
		return err
	}

	start := time.Now()
	code := executeShortcut(ctx, e, opts, renderer, s)
	if code == 0 {
		return nil
	}

	tool := filepath.Base(firstNonEmpty(e.cfg.Build.Tool, build.DefaultTool))
	fmt.Fprintf(s.err, "\n%s\n", surface.Red("Failed due to errors!"))
	fmt.Fprintf(s.err, "Note: Remember to call 'b' instead of '%s' to retry\n", tool)
	fmt.Fprintf(s.out, "\nTook: %dms\n", time.Since(start).Milliseconds())
	return &exitError{code: code}
}

// executeShortcut checks the preconditions, runs the pipeline and returns
// the exit status.
func executeShortcut(ctx context.Context, e *env, opts shortcutOpts, renderer surface.Renderer, s streams) int {
	client, err := connectOracle(ctx, e)
	if err != nil {
		e.logger.Debug("oracle unavailable", "error", err)
		fmt.Fprintln(s.err, "Web service not found; cannot execute shortcut command!")
		if hints := failure.HintsOf(err); len(hints) > 0 {
			fmt.Fprintln(s.out, "Hint: here are two possible causes that may help you troubleshoot:")
			for i, h := range hints {
				fmt.Fprintf(s.out, "   %d. %s\n", i+1, h)
			}
		}
		return 1
	}

	root, err := config.FindCheckoutRoot(e.cwd, e.cfg.Checkout.Markers)
	if err != nil {
		fmt.Fprintf(s.err, "Could not find checkout root from '%s'. This command does not work with a partial checkout.\n", e.cwd)
		return 1
	}
	e.logger.Debug("checkout root", "path", root)

	pipeline := &scope.Pipeline{
		Oracle:   client,
		Operator: surface.NewConsole(s.in, s.out),
		Builder: &build.Runner{
			Tool:    e.cfg.Build.Tool,
			Timeout: e.cfg.BuildTimeout(),
			Stdin:   s.in,
			Stdout:  s.out,
			Stderr:  s.err,
			Logger:  e.logger,
		},
		Root:         root,
		WorkDir:      e.cwd,
		Descriptor:   e.cfg.Build.Descriptor,
		RestrictFlag: e.cfg.Build.RestrictFlag,
		Verbose:      opts.verbose,
		DryRun:       opts.dryRun,
		Logger:       e.logger,
	}

	res, runErr := pipeline.Run(ctx, scope.Request{
		Projects:    parseProjectList(opts.projects),
		Passthrough: opts.passthrough,
	})
	publishReport(ctx, e, firstNonEmpty(opts.reportSink, e.cfg.Report.Sink), res, runErr)

	if runErr != nil {
		fmt.Fprintln(s.err, runErr.Error())
		for _, h := range failure.HintsOf(runErr) {
			fmt.Fprintf(s.err, "  Hint: %s\n", h)
		}
		return 1
	}

	if opts.dryRun || opts.output != "text" {
		if err := renderer.Render(s.out, res); err != nil {
			fmt.Fprintf(s.err, "rendering result: %v\n", err)
			return 1
		}
	}
	return res.ExitCode
}

// publishReport stores the run report if a sink is configured. Failures are
// logged and never change the outcome of the run.
func publishReport(ctx context.Context, e *env, target string, res *scope.Result, runErr error) {
	if target == "" {
		return
	}
	s3 := e.cfg.Report.S3
	sink, err := report.Open(ctx, target, report.S3Config{
		Region:    s3.Region,
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
	})
	if err != nil {
		e.logger.Warn("opening report sink failed", "target", target, "error", err)
		return
	}
	defer sink.Close()

	r := report.FromResult(res, runErr)
	if err := sink.Publish(ctx, r); err != nil {
		e.logger.Warn("publishing run report failed", "target", target, "error", err)
		return
	}
	e.logger.Info("run report published", "id", r.ID, "target", target)
}
