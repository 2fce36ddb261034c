package scope

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/buildshortcut/shortcut/pkg/failure"
)

// PathMapper turns project names into directories relative to the checkout root.
type PathMapper struct {
	Oracle     Oracle
	Root       string
	Descriptor string // defaults to DefaultDescriptor
}

// Map returns the directory of each project, in the order the oracle
// answered. Every directory must contain the descriptor; the first missing
// one fails the whole mapping.
func (m *PathMapper) Map(ctx context.Context, names []string) ([]string, error) {
	unique := dedupe(names)
	buildPaths, err := m.Oracle.ResolveBuildPaths(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(buildPaths) != len(unique) {
		return nil, failure.Newf(failure.InvalidResponse,
			"the oracle returned %d build paths for %d projects", len(buildPaths), len(unique))
	}

	desc := m.Descriptor
	if desc == "" {
		desc = DefaultDescriptor
	}

	dirs := make([]string, 0, len(buildPaths))
	for _, bp := range buildPaths {
		dir, err := projectDir(bp, desc)
		if err != nil {
			return nil, err
		}

		abs := filepath.Join(m.Root, filepath.FromSlash(dir))
		if _, err := os.Stat(filepath.Join(abs, desc)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, failure.Newf(failure.MissingBuildFile,
					"There is no %s in directory %s. Did you forget to initialize this module?", desc, abs).
					WithPath(abs)
			}
			return nil, fmt.Errorf("checking %s: %w", filepath.Join(abs, desc), err)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// projectDir strips the descriptor file name from a build path. The path
// must be relative and stay inside the checkout.
func projectDir(buildPath, desc string) (string, error) {
	p := strings.TrimSpace(filepath.ToSlash(buildPath))
	if p == "" || path.IsAbs(p) || filepath.IsAbs(buildPath) {
		return "", failure.Newf(failure.InvalidResponse, "build path %q is not relative to the checkout root", buildPath)
	}
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", failure.Newf(failure.InvalidResponse, "build path %q leaves the checkout root", buildPath)
	}

	switch {
	case p == desc:
		return ".", nil
	case strings.HasSuffix(p, "/"+desc):
		return strings.TrimSuffix(p, "/"+desc), nil
	default:
		return p, nil
	}
}
