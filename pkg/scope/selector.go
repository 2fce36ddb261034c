package scope

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/buildshortcut/shortcut/pkg/failure"
)

// Selector asks the operator to pick one change scenario per project.
type Selector struct {
	Operator Operator
}

// Select returns the chosen scenario. A single candidate is chosen without
// asking. Invalid answers are reported and the question is repeated until a
// valid index arrives or the input closes.
func (s *Selector) Select(project string, candidates []string) (string, error) {
	op := s.Operator
	op.Show("\n")

	switch len(candidates) {
	case 0:
		return "", failure.Newf(failure.InvalidResponse, "the oracle offered no change scenarios for project %s", project)
	case 1:
		op.Show("The project %s has no build shortcuts.\n", project)
		return candidates[0], nil
	}

	op.Show("The following change scenarios exist for %s:\n", project)
	for i, c := range candidates {
		op.Show("    %2d: %s\n", i+1, c)
	}
	op.Show("Select the applicable scenario by entering its index: ")

	for {
		line, err := op.Answer()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", failure.New(failure.InputClosed,
					"cannot recover from invalid input, ending shortcut execution", err)
			}
			return "", failure.New(failure.InputClosed, "reading selection", err)
		}

		idx, err := parseSelection(line, len(candidates))
		if err != nil {
			op.Show("\n%q is not a valid selection. Please enter an integer in [1, %d]: ", line, len(candidates))
			continue
		}

		choice := candidates[idx-1]
		op.Show("\nYou selected this option: %s\n", choice)
		return choice, nil
	}
}

// parseSelection parses a 1-based index in [1, n].
func parseSelection(line string, n int) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, failure.New(failure.InvalidSelection, "not an integer", err)
	}
	if idx < 1 || idx > n {
		return 0, failure.Newf(failure.InvalidSelection, "%d is outside [1, %d]", idx, n)
	}
	return idx, nil
}
