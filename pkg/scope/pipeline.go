package scope

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Builder runs the build tool in dir and returns its exit status.
type Builder interface {
	Run(ctx context.Context, dir string, args []string) (int, error)
}

// Request is one shortcut invocation.
type Request struct {
	Projects    []string // explicit changed projects; empty means read the descriptor
	Passthrough []string // forwarded to the build tool after the restriction
}

// Result is the outcome of a pipeline run. Fields are filled in as stages
// complete, so a failed run still reports how far it got.
type Result struct {
	CheckoutRoot     string
	ChangedProjects  []string
	Scenarios        []string
	AffectedProjects []string
	ProjectPaths     []string
	BuildOptions     []string
	ExitCode         int
	NothingToBuild   bool
	DryRun           bool
	Started          time.Time
	Duration         time.Duration
}

// Pipeline wires the stages together. The oracle must already be reachable
// and the checkout root discovered.
type Pipeline struct {
	Oracle       Oracle
	Operator     Operator
	Builder      Builder // not used in dry-run mode
	Root         string
	WorkDir      string
	Descriptor   string
	RestrictFlag string
	Verbose      bool
	DryRun       bool
	Logger       *slog.Logger
}

// Run executes one invocation. The returned Result is never nil.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{CheckoutRoot: p.Root, DryRun: p.DryRun, Started: time.Now()}
	defer func() { res.Duration = time.Since(res.Started) }()

	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	identity := &IdentityResolver{Root: p.Root, WorkDir: p.WorkDir, Descriptor: p.Descriptor, Operator: p.Operator}
	projects, err := identity.Resolve(req.Projects)
	if err != nil {
		return res, err
	}
	res.ChangedProjects = projects
	logger.Debug("changed projects", "projects", projects)

	selector := &Selector{Operator: p.Operator}
	for _, project := range projects {
		candidates, err := p.Oracle.ListScenarios(ctx, project)
		if err != nil {
			return res, err
		}
		choice, err := selector.Select(project, candidates)
		if err != nil {
			return res, err
		}
		res.Scenarios = append(res.Scenarios, choice)
	}
	if p.Verbose {
		p.Operator.Show("\n")
		showList(p.Operator, "All selected change scenarios:", res.Scenarios)
	}

	affected, err := (&Aggregator{Oracle: p.Oracle}).Aggregate(ctx, res.Scenarios)
	if err != nil {
		return res, err
	}
	res.AffectedProjects = affected
	logger.Debug("affected projects", "count", len(affected))
	if p.Verbose {
		p.Operator.Show("\n")
		showList(p.Operator, "Found the following dependencies:", affected)
	}

	if len(affected) == 0 {
		res.NothingToBuild = true
		p.Operator.Show("\nThe selected change scenarios affect no projects. Nothing to build.\n")
		return res, nil
	}

	mapper := &PathMapper{Oracle: p.Oracle, Root: p.Root, Descriptor: p.Descriptor}
	paths, err := mapper.Map(ctx, affected)
	if err != nil {
		return res, err
	}
	res.ProjectPaths = paths

	opts, err := Assembler{RestrictFlag: p.RestrictFlag}.Assemble(paths, req.Passthrough)
	if err != nil {
		return res, err
	}
	res.BuildOptions = opts

	if p.DryRun {
		logger.Debug("dry run, build tool not started", "options", opts)
		return res, nil
	}
	if p.Builder == nil {
		return res, fmt.Errorf("no build tool configured")
	}

	p.Operator.Show("\n")
	code, err := p.Builder.Run(ctx, p.Root, opts)
	res.ExitCode = code
	if err != nil {
		return res, fmt.Errorf("running build tool: %w", err)
	}
	return res, nil
}
