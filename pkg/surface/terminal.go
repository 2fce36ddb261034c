package surface

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/buildshortcut/shortcut/pkg/scope"
)

// TerminalRenderer renders a Result as colored terminal output.
type TerminalRenderer struct {
	Tool string
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

// Red, Green and Yellow color s unless NO_COLOR is set.
func Red(s string) string    { return colored(s, colorRed) }
func Green(s string) string  { return colored(s, colorGreen) }
func Yellow(s string) string { return colored(s, colorYellow) }

// PrintList writes a title and the sorted items, each indented by four spaces.
func PrintList(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, title)
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	for _, it := range sorted {
		fmt.Fprintf(w, "    %s\n", it)
	}
}

// CommandLine formats the build invocation as a shell would show it.
func CommandLine(tool string, args []string) string {
	if tool == "" {
		tool = "mvn"
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, tool)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'$") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func (r *TerminalRenderer) Render(w io.Writer, result *scope.Result) error {
	header := "Shortcut scope"
	if result.DryRun {
		header += " (dry run)"
	}
	fmt.Fprintf(w, "%s\n\n", bold(header))
	fmt.Fprintf(w, "Checkout root: %s\n\n", result.CheckoutRoot)

	section(w, "Changed projects:", result.ChangedProjects)
	section(w, "Selected change scenarios:", result.Scenarios)

	if result.NothingToBuild {
		fmt.Fprintf(w, "%s\n", colored("The selected change scenarios affect no projects. Nothing to build.", colorGreen))
		return nil
	}

	section(w, fmt.Sprintf("Affected projects (%d):", len(result.AffectedProjects)), result.AffectedProjects)
	if len(result.ProjectPaths) > 0 {
		fmt.Fprintln(w, "Project directories:")
		for _, p := range result.ProjectPaths {
			fmt.Fprintf(w, "    %s\n", dim(p))
		}
		fmt.Fprintln(w)
	}

	if len(result.BuildOptions) > 0 {
		fmt.Fprintln(w, "Build command:")
		fmt.Fprintf(w, "    %s\n", bold(CommandLine(r.Tool, result.BuildOptions)))
	}
	if !result.DryRun {
		status := colored(fmt.Sprintf("exit %d", result.ExitCode), colorGreen)
		if result.ExitCode != 0 {
			status = colored(fmt.Sprintf("exit %d", result.ExitCode), colorRed)
		}
		fmt.Fprintf(w, "\nBuild finished: %s\n", status)
	}
	return nil
}

func section(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	PrintList(w, title, items)
	fmt.Fprintln(w)
}
