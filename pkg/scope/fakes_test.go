package scope

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buildshortcut/shortcut/pkg/failure"
)

// fakeOracle answers from maps and counts calls.
type fakeOracle struct {
	scenarios  map[string][]string
	dependents map[string][]string
	paths      map[string]string
	pathsOrder []string // when set, ResolveBuildPaths answers in this order

	scenarioCalls  int
	dependentCalls int
	pathCalls      int
	lastScenarios  []string
}

func (f *fakeOracle) ListScenarios(_ context.Context, project string) ([]string, error) {
	f.scenarioCalls++
	sc, ok := f.scenarios[project]
	if !ok {
		return nil, failure.Newf(failure.UnknownProject, "could not find change scenarios for project %s", project)
	}
	return sc, nil
}

func (f *fakeOracle) ResolveDependents(_ context.Context, scenarios []string) ([]string, error) {
	f.dependentCalls++
	f.lastScenarios = append([]string(nil), scenarios...)
	var out []string
	for _, s := range scenarios {
		deps, ok := f.dependents[s]
		if !ok {
			return nil, failure.Newf(failure.UnknownScenario, "could not resolve dependencies")
		}
		out = append(out, deps...)
	}
	return out, nil
}

func (f *fakeOracle) ResolveBuildPaths(_ context.Context, projects []string) ([]string, error) {
	f.pathCalls++
	order := projects
	if f.pathsOrder != nil {
		order = f.pathsOrder
	}
	var out []string
	for _, p := range order {
		bp, ok := f.paths[p]
		if !ok {
			return nil, failure.Newf(failure.UnknownProject, "could not find build specification paths")
		}
		out = append(out, bp)
	}
	return out, nil
}

// scriptedOperator replays answers and records everything shown.
type scriptedOperator struct {
	answers []string
	asked   int
	out     strings.Builder
}

func (s *scriptedOperator) Show(format string, args ...any) {
	fmt.Fprintf(&s.out, format, args...)
}

func (s *scriptedOperator) Answer() (string, error) {
	if s.asked >= len(s.answers) {
		return "", io.EOF
	}
	a := s.answers[s.asked]
	s.asked++
	return a, nil
}

// fakeBuilder records its invocation.
type fakeBuilder struct {
	calls int
	dir   string
	args  []string
	code  int
}

func (b *fakeBuilder) Run(_ context.Context, dir string, args []string) (int, error) {
	b.calls++
	b.dir = dir
	b.args = append([]string(nil), args...)
	return b.code, nil
}

// writeDescriptor creates root/dir/pom.xml with the given body.
func writeDescriptor(t *testing.T, root, dir, body string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(dir))
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(full, "pom.xml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
