package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/buildshortcut/shortcut/pkg/scope"
)

// maxMarkdownProjects caps the project table in CI summaries.
const maxMarkdownProjects = 50

// MarkdownRenderer produces a Markdown summary of a run, suitable for CI job
// summaries.
type MarkdownRenderer struct {
	Tool string
}

func (r *MarkdownRenderer) Render(w io.Writer, result *scope.Result) error {
	_, err := io.WriteString(w, r.Summary(result))
	return err
}

// Summary builds the Markdown document for a Result.
func (r *MarkdownRenderer) Summary(result *scope.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Build shortcut: %s\n\n", conclusion(result)))

	sb.WriteString("| Changed project | Selected scenario |\n|---|---|\n")
	for i, p := range result.ChangedProjects {
		scenario := "_not selected_"
		if i < len(result.Scenarios) {
			scenario = "`" + result.Scenarios[i] + "`"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p, scenario))
	}
	sb.WriteString("\n")

	if result.NothingToBuild {
		sb.WriteString("The selected change scenarios affect no projects. Nothing was built.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("### Affected projects (%d)\n\n", len(result.AffectedProjects)))
	for i, p := range result.AffectedProjects {
		if i >= maxMarkdownProjects {
			sb.WriteString(fmt.Sprintf("_... and %d more_\n", len(result.AffectedProjects)-maxMarkdownProjects))
			break
		}
		sb.WriteString(fmt.Sprintf("- %s\n", p))
	}
	sb.WriteString("\n")

	if len(result.BuildOptions) > 0 {
		sb.WriteString("```\n")
		sb.WriteString(CommandLine(r.Tool, result.BuildOptions))
		sb.WriteString("\n```\n")
	}
	return sb.String()
}

func conclusion(result *scope.Result) string {
	switch {
	case result.NothingToBuild:
		return "nothing to build"
	case result.DryRun:
		return "dry run"
	case result.ExitCode == 0:
		return "success"
	default:
		return fmt.Sprintf("failure (exit %d)", result.ExitCode)
	}
}
