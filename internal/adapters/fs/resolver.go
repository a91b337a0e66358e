package fs

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// DefaultIgnores are build output directories never considered project inputs.
var DefaultIgnores = []string{"bin", "obj"}

// Resolver expands include and exclude glob patterns against a directory tree.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveInputs returns the sorted absolute paths of the files under root
// matching any include pattern and no exclude pattern. A root that does not
// exist resolves to no files.
func (r *Resolver) ResolveInputs(root string, include, exclude []string) ([]string, error) {
	if err := validatePatterns(include); err != nil {
		return nil, err
	}
	if err := validatePatterns(exclude); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve root"), "root", root)
	}

	result := make([]string, 0)
	if len(include) == 0 {
		return result, nil
	}

	for file := range r.walker.WalkFiles(absRoot, DefaultIgnores) {
		rel, err := filepath.Rel(absRoot, file)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			result = append(result, file)
		}
	}

	slices.Sort(result)
	return result, nil
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		for _, segment := range strings.Split(pattern, "/") {
			if _, err := path.Match(segment, ""); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to match pattern"), "pattern", pattern)
			}
		}
	}
	return nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if Match(pattern, rel) {
			return true
		}
	}
	return false
}

// Match reports whether the slash separated path rel matches pattern. A "**"
// segment matches zero or more directories; other segments follow path.Match.
func Match(pattern, rel string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(rel, "/"))
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := range len(parts) + 1 {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], parts[0]); !ok {
			return false
		}
		pattern, parts = pattern[1:], parts[1:]
	}
	return len(parts) == 0
}
