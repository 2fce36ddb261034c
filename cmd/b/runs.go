package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/buildshortcut/shortcut/internal/report"
	"github.com/buildshortcut/shortcut/pkg/config"
)

func newRunsCmd(g *globalOpts, s streams) *cobra.Command {
	var (
		target string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the IDs of recently reported shortcut runs",
		Long: `Lists the most recent run reports stored in a Postgres report sink, newest
first. The sink defaults to the configured report sink.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd.Context(), g, target, limit, s)
		},
	}
	cmd.Flags().StringVar(&target, "report", "", "Postgres report sink URL")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func runRuns(ctx context.Context, g *globalOpts, target string, limit int, s streams) error {
	e, err := setup(g, s)
	if err != nil {
		return err
	}
	target = firstNonEmpty(target, e.cfg.Report.Sink)
	if target == "" {
		return fmt.Errorf("no report sink configured (use --report or %s)", config.EnvReport)
	}
	if u, err := url.Parse(target); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return fmt.Errorf("listing runs needs a postgres:// report sink, got %q", target)
	}
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	sink, err := report.OpenPostgres(ctx, target)
	if err != nil {
		return err
	}
	defer sink.Close()

	ids, err := sink.Recent(ctx, limit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(s.out, id)
	}
	return nil
}
