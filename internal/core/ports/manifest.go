package ports

import "go.trai.ch/loom/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks

// ManifestReader parses project manifests.
type ManifestReader interface {
	// ReadProject parses the manifest of the project identified by id.
	// It returns domain.ErrManifestNotFound when the file does not exist and
	// domain.ErrManifestInvalid when it cannot be parsed.
	ReadProject(id domain.ProjectID) (*domain.Project, error)
}

// SettingsLoader locates and reads workspace settings.
type SettingsLoader interface {
	// Load returns the settings that govern projects under dir, walking up to
	// the filesystem root. Defaults are returned when no settings file exists.
	Load(dir string) (*domain.WorkspaceSettings, error)
}
