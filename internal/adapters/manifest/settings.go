package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SettingsLoader = (*SettingsLoader)(nil)

// SettingsLoader locates and reads workspace.yaml.
type SettingsLoader struct{}

// NewSettingsLoader creates a new SettingsLoader.
func NewSettingsLoader() *SettingsLoader {
	return &SettingsLoader{}
}

// Load walks up from dir to the first directory holding workspace.yaml and
// reads it. Without a settings file the parent of dir is the workspace root.
func (l *SettingsLoader) Load(dir string) (*domain.WorkspaceSettings, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve directory"), "dir", dir)
	}

	path, ok := findSettings(abs)
	if !ok {
		return domain.DefaultSettings(abs), nil
	}

	var file settingsFile
	if err := readYAML(path, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, err.Error()), "path", path)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSettingsInvalid, err.Error()), "path", path)
	}

	root := filepath.Dir(path)
	settings := &domain.WorkspaceSettings{
		Path:          path,
		Root:          root,
		PackagesDir:   resolvePath(root, orDefault(file.Packages, domain.DefaultPackagesDir)),
		ReferencesDir: resolvePath(root, orDefault(file.References, domain.DefaultReferencesDir)),
	}
	if len(file.Projects) == 0 {
		settings.ProjectDirs = []string{root}
	}
	for _, p := range file.Projects {
		settings.ProjectDirs = append(settings.ProjectDirs, resolvePath(root, p))
	}
	return settings, nil
}

func findSettings(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, domain.SettingsFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
