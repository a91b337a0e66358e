// Package manifest reads project manifests and workspace settings from disk.
package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultCompile is used when a manifest declares no compile patterns.
var DefaultCompile = []string{"**/*.cs"}

var validate = validator.New(validator.WithRequiredStructEnabled())

var _ ports.ManifestReader = (*Reader)(nil)

// Reader implements ports.ManifestReader over project.yaml files.
type Reader struct {
	resolver ports.InputResolver
}

// NewReader creates a Reader that expands source globs with resolver.
func NewReader(resolver ports.InputResolver) *Reader {
	return &Reader{resolver: resolver}
}

// ReadProject parses the manifest of id. A missing manifest yields
// domain.ErrManifestNotFound and a malformed one domain.ErrManifestInvalid.
func (r *Reader) ReadProject(id domain.ProjectID) (*domain.Project, error) {
	path := id.ManifestPath()

	var file manifestFile
	if err := readYAML(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrManifestNotFound, "path", path)
		}
		return nil, invalid(path, err)
	}
	if err := validate.Struct(&file); err != nil {
		return nil, invalid(path, err)
	}

	project, err := r.convert(id, &file)
	if err != nil {
		return nil, invalid(path, err)
	}
	return project, nil
}

func invalid(path string, cause error) error {
	return zerr.With(zerr.Wrap(domain.ErrManifestInvalid, cause.Error()), "path", path)
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a project directory
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func (r *Reader) convert(id domain.ProjectID, file *manifestFile) (*domain.Project, error) {
	project := &domain.Project{
		ID:              id,
		Name:            file.Name,
		Version:         file.Version,
		Commands:        file.Commands,
		CompilerOptions: file.CompilerOptions.toDomain(),
		Dependencies:    toRanges(file.Dependencies),
	}
	if project.Name == "" {
		project.Name = id.Name()
	}
	if project.Commands == nil {
		project.Commands = map[string]string{}
	}

	project.Configurations = defaultConfigurations()
	if len(file.Configurations) > 0 {
		project.Configurations = make([]domain.Configuration, 0, len(file.Configurations))
		for _, entry := range file.Configurations {
			if _, err := domain.ParseConfiguration(entry.Key); err != nil {
				return nil, err
			}
			project.Configurations = append(project.Configurations, domain.Configuration{
				Name:            entry.Key,
				CompilerOptions: entry.Value.CompilerOptions.toDomain(),
			})
		}
	}

	seen := make(map[domain.Framework]bool, len(file.Frameworks))
	for _, entry := range file.Frameworks {
		fw, err := domain.ParseFramework(entry.Key)
		if err != nil {
			return nil, err
		}
		if seen[fw] {
			return nil, zerr.With(zerr.New("duplicate framework"), "framework", fw.String())
		}
		seen[fw] = true

		info := domain.TargetFrameworkInfo{
			Framework:           fw,
			Dependencies:        toRanges(entry.Value.Dependencies),
			FrameworkAssemblies: entry.Value.FrameworkAssemblies,
			CompilerOptions:     entry.Value.CompilerOptions.toDomain(),
			AssemblyPath:        resolvePath(id.Dir(), entry.Value.Assembly),
			WrappedProject:      resolvePath(id.Dir(), entry.Value.WrappedProject),
		}
		for _, name := range info.FrameworkAssemblies {
			info.Dependencies = append(info.Dependencies, domain.LibraryRange{Name: name, Target: domain.KindAssembly})
		}
		project.Frameworks = append(project.Frameworks, info)
	}

	compile := file.Compile
	if len(compile) == 0 {
		compile = DefaultCompile
	}
	sources, err := r.resolver.ResolveInputs(id.Dir(), compile, file.Exclude)
	if err != nil {
		return nil, err
	}
	project.SourceFiles = sources

	project.SharedFiles = []string{}
	if len(file.Shared) > 0 {
		shared, err := r.resolver.ResolveInputs(id.Dir(), file.Shared, file.Exclude)
		if err != nil {
			return nil, err
		}
		project.SharedFiles = shared
	}

	return project, nil
}

func toRanges(deps orderedMap[dependencyDTO]) []domain.LibraryRange {
	ranges := make([]domain.LibraryRange, 0, len(deps))
	for _, entry := range deps {
		ranges = append(ranges, domain.LibraryRange{
			Name:       entry.Key,
			MinVersion: entry.Value.Version,
			Target:     domain.LibraryKind(entry.Value.Target),
		})
	}
	return ranges
}

func (o compilerOptionsDTO) toDomain() domain.CompilerOptions {
	return domain.CompilerOptions{
		Defines:          o.Defines,
		Optimize:         o.Optimize,
		WarningsAsErrors: o.WarningsAsErrors,
		LanguageVersion:  o.LanguageVersion,
	}
}

func defaultConfigurations() []domain.Configuration {
	optimize, noOptimize := true, false
	return []domain.Configuration{
		{Name: "Debug", CompilerOptions: domain.CompilerOptions{Defines: []string{"DEBUG", "TRACE"}, Optimize: &noOptimize}},
		{Name: "Release", CompilerOptions: domain.CompilerOptions{Defines: []string{"RELEASE", "TRACE"}, Optimize: &optimize}},
	}
}

// resolvePath makes a manifest-relative path absolute. Empty stays empty.
func resolvePath(dir, path string) string {
	if path == "" {
		return ""
	}
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
