package scope

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/buildshortcut/shortcut/pkg/config"
	"github.com/buildshortcut/shortcut/pkg/descriptor"
	"github.com/buildshortcut/shortcut/pkg/failure"
)

// IdentityResolver determines which projects were changed.
type IdentityResolver struct {
	Root       string // checkout root, empty if none was found
	WorkDir    string
	Descriptor string // defaults to DefaultDescriptor
	Operator   Operator
}

// Resolve returns explicit unchanged when it is non-empty. Otherwise it
// reads the name of the project whose descriptor is closest to the working
// directory.
func (r *IdentityResolver) Resolve(explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if r.Root == "" {
		return nil, failure.Newf(failure.NoCheckoutRoot,
			"Could not find checkout root from '%s'. This command does not work with a partial checkout.", r.WorkDir).
			WithPath(r.WorkDir)
	}

	name := r.Descriptor
	if name == "" {
		name = DefaultDescriptor
	}

	r.Operator.Show("\nDetermining project name from POM file in directory...\n")
	path, err := config.FindClosestDescriptor(r.WorkDir, r.Root, name)
	if err != nil {
		if errors.Is(err, config.ErrNoDescriptor) {
			return nil, failure.Newf(failure.NoDescriptorFound,
				"There is no %s between %s and the checkout root %s.", name, r.WorkDir, r.Root).
				WithPath(r.WorkDir)
		}
		return nil, fmt.Errorf("locating %s: %w", name, err)
	}

	project, err := descriptor.ReadProjectName(path)
	if err != nil {
		return nil, failure.New(failure.MalformedDescriptor,
			fmt.Sprintf("Could not determine the project name from %s", filepath.ToSlash(path)), err).
			WithPath(path)
	}
	r.Operator.Show("Found project name: %s\n", project)
	return []string{project}, nil
}
