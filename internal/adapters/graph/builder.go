// Package graph resolves the library graph of a project against sibling
// projects, the local package store and the reference assemblies directory.
package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/loom/internal/adapters/manifest"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

var _ ports.GraphBuilder = (*Builder)(nil)

// Builder implements ports.GraphBuilder with breadth-first resolution.
type Builder struct {
	reader   ports.ManifestReader
	settings ports.SettingsLoader
	logger   ports.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(reader ports.ManifestReader, settings ports.SettingsLoader, logger ports.Logger) *Builder {
	return &Builder{reader: reader, settings: settings, logger: logger}
}

// Build resolves every library reachable from project for fw. Libraries are
// listed in discovery order with the root project first.
func (b *Builder) Build(ctx context.Context, project *domain.Project, fw domain.Framework) (*domain.ProjectContext, error) {
	tf, ok := project.TargetFramework(fw)
	if !ok {
		return nil, zerr.With(domain.ErrFrameworkNotFound, "framework", fw.String())
	}

	settings, err := b.settings.Load(project.Directory())
	if err != nil {
		return nil, zerr.With(buildFailed(err), "project", project.Directory())
	}

	r := &resolution{
		builder:    b,
		settings:   settings,
		fw:         fw,
		byName:     make(map[string]*domain.LibraryDescription),
		probed:     make(map[string]bool),
		searchDirs: settings.SearchPaths(project.Directory()),
	}
	if settings.Path != "" {
		r.probe(settings.Path)
	} else {
		r.probe(filepath.Join(settings.Root, domain.SettingsFileName))
	}

	root := &domain.LibraryDescription{
		Identity:        domain.LibraryIdentity{Name: project.Name, Version: project.Version, Kind: domain.KindProject},
		Resolved:        true,
		Dependencies:    project.DependenciesFor(fw),
		Framework:       fw,
		Path:            project.ManifestPath(),
		Project:         project,
		TargetFramework: tf,
	}
	r.add(root)
	r.byName[project.ID.Name()] = root

	for queue := []*domain.LibraryDescription{root}; len(queue) > 0; queue = queue[1:] {
		if err := ctx.Err(); err != nil {
			return nil, buildFailed(err)
		}
		for _, dep := range queue[0].Dependencies {
			lib, err := r.resolve(queue[0], dep)
			if err != nil {
				return nil, zerr.With(buildFailed(err), "dependency", dep.Name)
			}
			if lib != nil {
				queue = append(queue, lib)
			}
		}
	}

	b.logger.Debug("resolved library graph",
		"project", project.Directory(),
		"framework", fw.String(),
		"libraries", len(r.libraries),
		"diagnostics", len(r.diagnostics),
	)

	return &domain.ProjectContext{
		Project:     project,
		Framework:   fw,
		Libraries:   r.libraries,
		Diagnostics: r.diagnostics,
		InputFiles:  r.inputs,
	}, nil
}

// buildFailed marks err as a graph failure while keeping its own chain.
func buildFailed(err error) error {
	return zerr.Wrap(err, domain.ErrGraphBuildFailed.Error())
}

type resolution struct {
	builder     *Builder
	settings    *domain.WorkspaceSettings
	fw          domain.Framework
	searchDirs  []string
	libraries   []*domain.LibraryDescription
	diagnostics []domain.DiagnosticMessage
	inputs      []domain.InputFile
	byName      map[string]*domain.LibraryDescription
	probed      map[string]bool
}

func (r *resolution) add(lib *domain.LibraryDescription) {
	r.libraries = append(r.libraries, lib)
	r.byName[lib.Identity.Name] = lib
}

// probe records path as an input of the graph and reports whether it exists.
func (r *resolution) probe(path string) bool {
	info, err := os.Stat(path)
	if !r.probed[path] {
		r.probed[path] = true
		input := domain.InputFile{Path: path}
		if err == nil {
			input.ModTime = info.ModTime()
			input.Exists = true
		}
		r.inputs = append(r.inputs, input)
	}
	return err == nil
}

// resolve returns the library newly discovered for dep, or nil when dep names
// a library that is already part of the graph.
func (r *resolution) resolve(parent *domain.LibraryDescription, dep domain.LibraryRange) (*domain.LibraryDescription, error) {
	if existing, ok := r.byName[dep.Name]; ok {
		r.checkVersion(parent, dep, existing)
		return nil, nil
	}

	var (
		lib *domain.LibraryDescription
		err error
	)
	if dep.Accepts(domain.KindProject) {
		if lib, err = r.resolveProject(dep); err != nil {
			return nil, err
		}
	}
	if lib == nil && dep.Accepts(domain.KindPackage) {
		if lib, err = r.resolvePackage(dep); err != nil {
			return nil, err
		}
	}
	if lib == nil && dep.Accepts(domain.KindAssembly) {
		lib = r.resolveAssembly(dep)
	}
	if lib == nil {
		lib = r.unresolved(parent, dep, fmt.Sprintf("the dependency %s could not be resolved", describeRange(dep)))
	}

	r.add(lib)
	if lib.Resolved {
		r.checkVersion(parent, dep, lib)
	}
	return lib, nil
}

func (r *resolution) resolveProject(dep domain.LibraryRange) (*domain.LibraryDescription, error) {
	for _, dir := range r.searchDirs {
		candidate := filepath.Join(dir, dep.Name, domain.ManifestFileName)
		if !r.probe(candidate) {
			continue
		}
		id, err := domain.NewProjectID(candidate)
		if err != nil {
			return nil, err
		}
		project, err := r.builder.reader.ReadProject(id)
		if err != nil {
			if domain.IsAbsent(err) {
				r.builder.logger.Warn("skipping unreadable project", "path", candidate, "error", err.Error())
				continue
			}
			return nil, err
		}

		lib := &domain.LibraryDescription{
			Identity:  domain.LibraryIdentity{Name: dep.Name, Version: project.Version, Kind: domain.KindProject},
			Framework: r.fw,
			Path:      project.ManifestPath(),
			Project:   project,
		}
		tf, ok := project.TargetFramework(r.fw)
		if !ok {
			r.diagnostics = append(r.diagnostics, domain.DiagnosticMessage{
				Code:     domain.CodeInvalidDependency,
				Message:  fmt.Sprintf("the project %s does not support framework %s", dep.Name, r.fw),
				Severity: domain.SeverityError,
				Source:   lib.Identity,
				Path:     lib.Path,
			})
			return lib, nil
		}
		lib.Resolved = true
		lib.TargetFramework = tf
		lib.Dependencies = project.DependenciesFor(r.fw)
		return lib, nil
	}
	return nil, nil
}

func (r *resolution) resolvePackage(dep domain.LibraryRange) (*domain.LibraryDescription, error) {
	dir := filepath.Join(r.settings.PackagesDir, dep.Name)
	if !r.probe(dir) {
		return nil, nil
	}

	version, ok, err := lowestVersion(dir, dep.MinVersion)
	if err != nil || !ok {
		return nil, err
	}

	path := filepath.Join(dir, version)
	metadata := filepath.Join(path, manifest.PackageFileName)
	r.probe(metadata)
	deps, err := manifest.ReadPackage(metadata, r.fw)
	if err != nil && !domain.IsAbsent(err) {
		return nil, err
	}

	return &domain.LibraryDescription{
		Identity:     domain.LibraryIdentity{Name: dep.Name, Version: version, Kind: domain.KindPackage},
		Resolved:     true,
		Dependencies: deps,
		Framework:    r.fw,
		Path:         path,
	}, nil
}

func (r *resolution) resolveAssembly(dep domain.LibraryRange) *domain.LibraryDescription {
	path := filepath.Join(r.settings.ReferencesDir, r.fw.String(), dep.Name+".dll")
	if !r.probe(path) {
		return nil
	}
	return &domain.LibraryDescription{
		Identity:  domain.LibraryIdentity{Name: dep.Name, Kind: domain.KindAssembly},
		Resolved:  true,
		Framework: r.fw,
		Path:      path,
	}
}

func (r *resolution) unresolved(parent *domain.LibraryDescription, dep domain.LibraryRange, message string) *domain.LibraryDescription {
	lib := &domain.LibraryDescription{
		Identity:  domain.LibraryIdentity{Name: dep.Name, Version: dep.MinVersion, Kind: domain.KindUnresolved},
		Framework: r.fw,
		Path:      parent.Path,
	}
	r.diagnostics = append(r.diagnostics, domain.DiagnosticMessage{
		Code:     domain.CodeUnresolvedDependency,
		Message:  message,
		Severity: domain.SeverityError,
		Source:   lib.Identity,
		Path:     parent.Path,
	})
	return lib
}

// checkVersion warns when the library chosen for dep is older than requested.
func (r *resolution) checkVersion(parent *domain.LibraryDescription, dep domain.LibraryRange, lib *domain.LibraryDescription) {
	if dep.MinVersion == "" || !lib.Resolved || lib.Identity.Version == "" {
		return
	}
	if !dep.Accepts(lib.Identity.Kind) {
		r.diagnostics = append(r.diagnostics, domain.DiagnosticMessage{
			Code:     domain.CodeVersionConflict,
			Message:  fmt.Sprintf("%s requires %s but it resolved to %s", parent.Identity.Name, describeRange(dep), lib.Identity.Kind),
			Severity: domain.SeverityWarning,
			Source:   parent.Identity,
			Path:     parent.Path,
		})
		return
	}
	if semver.Compare(canonical(lib.Identity.Version), canonical(dep.MinVersion)) < 0 {
		r.diagnostics = append(r.diagnostics, domain.DiagnosticMessage{
			Code: domain.CodeVersionConflict,
			Message: fmt.Sprintf("%s requires %s but %s was resolved",
				parent.Identity.Name, describeRange(dep), lib.Identity),
			Severity: domain.SeverityWarning,
			Source:   parent.Identity,
			Path:     parent.Path,
		})
	}
}

func describeRange(dep domain.LibraryRange) string {
	if dep.MinVersion == "" {
		return dep.Name
	}
	return dep.Name + " >= " + dep.MinVersion
}
