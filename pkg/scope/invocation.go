package scope

import (
	"strings"

	"github.com/buildshortcut/shortcut/pkg/failure"
)

// Assembler builds the build tool's option list.
type Assembler struct {
	RestrictFlag string // defaults to DefaultRestrictFlag
}

// Assemble restricts the build to paths and appends passthrough in its
// original order.
func (a Assembler) Assemble(paths, passthrough []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, failure.Newf(failure.EmptyProjectList, "no projects to build")
	}
	flag := a.RestrictFlag
	if flag == "" {
		flag = DefaultRestrictFlag
	}
	opts := make([]string, 0, 2+len(passthrough))
	opts = append(opts, flag, strings.Join(paths, ","))
	opts = append(opts, passthrough...)
	return opts, nil
}
