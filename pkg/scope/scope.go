// Package scope computes the set of projects a change affects and turns it
// into a restricted build invocation.
//
// The stages run strictly in order: identify the changed projects, let the
// operator pick one change scenario per project, ask the oracle which
// projects those scenarios affect, map them to directories in the checkout,
// and assemble the build tool's option list.
package scope

import (
	"context"
	"sort"
)

// DefaultDescriptor is the build descriptor file name.
const DefaultDescriptor = "pom.xml"

// DefaultRestrictFlag restricts a build to a comma-separated project list.
const DefaultRestrictFlag = "-pl"

// Oracle answers dependency questions about the checkout's projects.
type Oracle interface {
	ListScenarios(ctx context.Context, project string) ([]string, error)
	ResolveDependents(ctx context.Context, scenarios []string) ([]string, error)
	ResolveBuildPaths(ctx context.Context, projects []string) ([]string, error)
}

// Operator is the person driving the command. Show writes to them and
// Answer reads one line of their input, without the line terminator.
// Answer returns io.EOF once the input is closed.
type Operator interface {
	Show(format string, args ...any)
	Answer() (string, error)
}

// dedupe returns items without repeats, keeping first occurrences in order.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

func sorted(items []string) []string {
	out := append([]string(nil), items...)
	sort.Strings(out)
	return out
}

// showList prints a title followed by the sorted items, one per line.
func showList(op Operator, title string, items []string) {
	op.Show("%s\n", title)
	for _, it := range sorted(items) {
		op.Show("    %s\n", it)
	}
}
