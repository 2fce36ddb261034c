package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newProjectsCmd(g *globalOpts, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects known to the dependency service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(cmd.Context(), g, s)
		},
	}
}

func runProjects(ctx context.Context, g *globalOpts, s streams) error {
	e, err := setup(g, s)
	if err != nil {
		return err
	}
	client, err := connectOracle(ctx, e)
	if err != nil {
		return err
	}

	names, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(s.out, n)
	}
	return nil
}

func newScenariosCmd(g *globalOpts, s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios PROJECT",
		Short: "List the change scenarios of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), g, args[0], s)
		},
	}
}

func runScenarios(ctx context.Context, g *globalOpts, project string, s streams) error {
	e, err := setup(g, s)
	if err != nil {
		return err
	}
	client, err := connectOracle(ctx, e)
	if err != nil {
		return err
	}

	scenarios, err := client.ListScenarios(ctx, project)
	if err != nil {
		return err
	}
	for i, sc := range scenarios {
		fmt.Fprintf(s.out, "%4d: %s\n", i+1, sc)
	}
	return nil
}
