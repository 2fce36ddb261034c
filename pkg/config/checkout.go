package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCheckoutRoot is returned when no ancestor carries a checkout marker.
var ErrNoCheckoutRoot = errors.New("no checkout root found")

// ErrNoDescriptor is returned when no build descriptor lies between a
// directory and its checkout root.
var ErrNoDescriptor = errors.New("no build descriptor found")

// FindCheckoutRoot walks up from dir looking for any of the marker entries
// (files or directories) and returns the first directory that has one.
func FindCheckoutRoot(dir string, markers []string) (string, error) {
	dir = filepath.Clean(dir)
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNoCheckoutRoot
}

// FindClosestDescriptor walks up from dir, not above root, looking for a
// build descriptor named name. It returns the cleaned absolute path.
func FindClosestDescriptor(dir, root, name string) (string, error) {
	dir = filepath.Clean(dir)
	root = filepath.Clean(root)
	if !within(dir, root) {
		return "", ErrNoDescriptor
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		if dir == root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNoDescriptor
}

func within(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
