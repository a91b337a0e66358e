package manifest_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/adapters/manifest"
	"go.trai.ch/loom/internal/core/domain"
)

func TestSettingsLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.SettingsFileName), `
projects: [src, test]
packages: store
`)
	projectDir := filepath.Join(root, "src", "App")
	writeFile(t, filepath.Join(projectDir, domain.ManifestFileName), "frameworks:\n  net8.0:\n")

	settings, err := manifest.NewSettingsLoader().Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, domain.SettingsFileName), settings.Path)
	assert.Equal(t, root, settings.Root)
	assert.Equal(t, []string{filepath.Join(root, "src"), filepath.Join(root, "test")}, settings.ProjectDirs)
	assert.Equal(t, filepath.Join(root, "store"), settings.PackagesDir)
	assert.Equal(t, filepath.Join(root, domain.DefaultReferencesDir), settings.ReferencesDir)
}

func TestSettingsLoader_Load_NoProjects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.SettingsFileName), "references: /opt/refs\n")

	settings, err := manifest.NewSettingsLoader().Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{root}, settings.ProjectDirs)
	assert.Equal(t, filepath.Clean("/opt/refs"), settings.ReferencesDir)
}

func TestSettingsLoader_Load_Defaults(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "App")
	writeFile(t, filepath.Join(projectDir, domain.ManifestFileName), "frameworks:\n  net8.0:\n")

	settings, err := manifest.NewSettingsLoader().Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSettings(projectDir), settings)
	assert.Empty(t, settings.Path)
}

func TestSettingsLoader_Load_Invalid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.SettingsFileName), "projects: [\"\"]\n")

	_, err := manifest.NewSettingsLoader().Load(root)
	require.ErrorIs(t, err, domain.ErrSettingsInvalid)
}
