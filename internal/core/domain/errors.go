package domain

import "errors"

// Sentinels are plain errors so that zerr.With and zerr.Wrap keep them
// reachable through errors.Is.
var (
	// ErrInputNotFound is returned when a requested project path does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrManifestNotFound is returned when a project directory has no project.yaml.
	ErrManifestNotFound = errors.New("project manifest not found")

	// ErrManifestInvalid is returned when a project manifest cannot be parsed or fails validation.
	ErrManifestInvalid = errors.New("invalid project manifest")

	// ErrSettingsInvalid is returned when workspace.yaml cannot be parsed or fails validation.
	ErrSettingsInvalid = errors.New("invalid workspace settings")

	// ErrFrameworkNotFound is returned when a project does not declare the requested framework.
	ErrFrameworkNotFound = errors.New("framework not declared by project")

	// ErrInvalidFramework is returned when a framework moniker is empty or malformed.
	ErrInvalidFramework = errors.New("invalid framework moniker")

	// ErrInvalidConfiguration is returned when a configuration name is empty or malformed.
	ErrInvalidConfiguration = errors.New("invalid configuration name")

	// ErrRootLibraryMissing is returned when a project context does not contain its own project.
	ErrRootLibraryMissing = errors.New("project context has no root library")

	// ErrReentrantComputation is returned when a cache factory requests the key it is computing.
	ErrReentrantComputation = errors.New("reentrant computation")

	// ErrGraphBuildFailed prefixes the errors that stop a library graph from being built.
	ErrGraphBuildFailed = errors.New("failed to build library graph")

	// ErrExportFailed is returned when a library export cannot be produced.
	ErrExportFailed = errors.New("failed to export library")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = errors.New("failed to start file watcher")
)

// IsAbsent reports whether err means a pipeline input could not be resolved.
// Such errors surface to callers as an absent result, never as a failure.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrInputNotFound) ||
		errors.Is(err, ErrManifestNotFound) ||
		errors.Is(err, ErrManifestInvalid) ||
		errors.Is(err, ErrFrameworkNotFound)
}
