// Package surface renders shortcut results and talks to the operator.
// Implementations handle different output targets: terminal, JSON and
// Markdown for CI job summaries.
package surface

import (
	"fmt"
	"io"

	"github.com/buildshortcut/shortcut/pkg/scope"
)

// Renderer produces formatted output from a pipeline Result.
type Renderer interface {
	// Render writes the formatted result to the writer.
	Render(w io.Writer, result *scope.Result) error
}

// NewRenderer returns the renderer for an output format. tool is the build
// tool name shown in command lines.
func NewRenderer(format, tool string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{Tool: tool}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{Tool: tool}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected text, json or markdown)", format)
	}
}

// ResultView is the serialized form of a Result.
type ResultView struct {
	CheckoutRoot     string   `json:"checkout_root"`
	ChangedProjects  []string `json:"changed_projects"`
	Scenarios        []string `json:"scenarios"`
	AffectedProjects []string `json:"affected_projects"`
	ProjectPaths     []string `json:"project_paths"`
	BuildOptions     []string `json:"build_options"`
	ExitCode         int      `json:"exit_code"`
	NothingToBuild   bool     `json:"nothing_to_build"`
	DryRun           bool     `json:"dry_run"`
	DurationMS       int64    `json:"duration_ms"`
}

// View converts a Result to its serialized form. Nil slices become empty.
func View(r *scope.Result) ResultView {
	return ResultView{
		CheckoutRoot:     r.CheckoutRoot,
		ChangedProjects:  nonNil(r.ChangedProjects),
		Scenarios:        nonNil(r.Scenarios),
		AffectedProjects: nonNil(r.AffectedProjects),
		ProjectPaths:     nonNil(r.ProjectPaths),
		BuildOptions:     nonNil(r.BuildOptions),
		ExitCode:         r.ExitCode,
		NothingToBuild:   r.NothingToBuild,
		DryRun:           r.DryRun,
		DurationMS:       r.Duration.Milliseconds(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
