package domain

import (
	"path/filepath"
	"slices"
)

// SettingsFileName is the workspace settings file looked up from a project
// directory towards the filesystem root.
const SettingsFileName = "workspace.yaml"

// Default workspace locations, relative to the settings file.
const (
	DefaultPackagesDir   = "packages"
	DefaultReferencesDir = "references"
)

// WorkspaceSettings locates the projects, packages and reference assemblies
// shared by the projects under one workspace.yaml. Directories are absolute.
type WorkspaceSettings struct {
	// Path is the settings file, or "" when no file was found and defaults apply.
	Path          string
	Root          string
	ProjectDirs   []string
	PackagesDir   string
	ReferencesDir string
}

// DefaultSettings returns the settings used when no workspace.yaml exists:
// the project's parent directory is the only search path.
func DefaultSettings(projectDir string) *WorkspaceSettings {
	root := filepath.Dir(projectDir)
	return &WorkspaceSettings{
		Root:          root,
		ProjectDirs:   []string{root},
		PackagesDir:   filepath.Join(root, DefaultPackagesDir),
		ReferencesDir: filepath.Join(root, DefaultReferencesDir),
	}
}

// SearchPaths lists the directories holding sibling projects of the project
// in projectDir: its parent directory followed by the workspace search paths.
func (s *WorkspaceSettings) SearchPaths(projectDir string) []string {
	dirs := []string{filepath.Dir(projectDir)}
	for _, dir := range s.ProjectDirs {
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
