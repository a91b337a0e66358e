// Package app exposes the dependency views of the projects in a workspace.
package app

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/loom/internal/engine/flatten"
	"go.trai.ch/loom/internal/engine/graphcache"
)

// Workspace answers queries about projects through one GraphCache. Results
// stay memoized until the files they were derived from change.
type Workspace struct {
	cache    *graphcache.GraphCache
	settings ports.SettingsLoader
	resolver ports.InputResolver
	logger   ports.Logger
}

// NewWorkspace creates a Workspace with an empty cache.
func NewWorkspace(
	reader ports.ManifestReader,
	builder ports.GraphBuilder,
	exporter ports.Exporter,
	settings ports.SettingsLoader,
	resolver ports.InputResolver,
	logger ports.Logger,
	tracer ports.Tracer,
) *Workspace {
	return &Workspace{
		cache:    graphcache.New(reader, builder, flatten.New(exporter), logger, tracer),
		settings: settings,
		resolver: resolver,
		logger:   logger,
	}
}

type selector struct {
	id            domain.ProjectID
	framework     domain.Framework
	configuration domain.InternedString
}

func parseSelector(path, framework, configuration string) (selector, error) {
	id, err := domain.NewProjectID(path)
	if err != nil {
		return selector{}, err
	}
	fw, err := domain.ParseFramework(framework)
	if err != nil {
		return selector{}, err
	}
	cfg, err := domain.ParseConfiguration(configuration)
	if err != nil {
		return selector{}, err
	}
	return selector{id: id, framework: fw, configuration: cfg}, nil
}

func (w *Workspace) dependencyInfo(
	ctx context.Context,
	path, framework, configuration string,
) (*domain.DependencyInfo, bool, error) {
	sel, err := parseSelector(path, framework, configuration)
	if err != nil {
		return nil, false, err
	}
	return w.cache.DependencyInfo(ctx, sel.id, sel.framework, sel.configuration)
}

// ProjectInfo returns the framework independent summary of the project at
// path. The bool is false when the project has no readable manifest.
func (w *Workspace) ProjectInfo(ctx context.Context, path string) (*domain.ProjectInformation, bool, error) {
	id, err := domain.NewProjectID(path)
	if err != nil {
		return nil, false, err
	}
	project, ok, err := w.cache.Project(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	settings, err := w.settings.Load(project.Directory())
	if err != nil {
		return nil, false, err
	}

	commands := maps.Clone(project.Commands)
	if commands == nil {
		commands = map[string]string{}
	}
	return &domain.ProjectInformation{
		Name:           project.Name,
		Directory:      project.Directory(),
		Commands:       commands,
		Configurations: project.ConfigurationNames(),
		Frameworks:     project.FrameworkNames(),
		SearchPaths:    settings.SearchPaths(project.Directory()),
		SettingsPath:   settings.Path,
	}, true, nil
}

// Dependencies describes every library of the project graph, root first.
// An absent project yields an empty slice.
func (w *Workspace) Dependencies(
	ctx context.Context,
	path, framework, configuration string,
) ([]domain.DependencyDescription, error) {
	info, ok, err := w.dependencyInfo(ctx, path, framework, configuration)
	if err != nil || !ok {
		return []domain.DependencyDescription{}, err
	}
	return info.Dependencies, nil
}

// Diagnostics returns the resolution problems of the project graph.
func (w *Workspace) Diagnostics(
	ctx context.Context,
	path, framework, configuration string,
) ([]domain.DiagnosticMessage, bool, error) {
	info, ok, err := w.dependencyInfo(ctx, path, framework, configuration)
	if err != nil || !ok {
		return nil, ok, err
	}
	return info.Diagnostics, true, nil
}

// FileReferences returns the compilation assemblies contributed by the
// project's dependencies.
func (w *Workspace) FileReferences(
	ctx context.Context,
	path, framework, configuration string,
) ([]string, bool, error) {
	info, ok, err := w.dependencyInfo(ctx, path, framework, configuration)
	if err != nil || !ok {
		return nil, ok, err
	}
	return info.FileReferences, true, nil
}

// ProjectReferences lists the projects the project depends on. An absent
// project yields an empty slice.
func (w *Workspace) ProjectReferences(
	ctx context.Context,
	path, framework, configuration string,
) ([]domain.ProjectReferenceInfo, error) {
	info, ok, err := w.dependencyInfo(ctx, path, framework, configuration)
	if err != nil || !ok {
		return []domain.ProjectReferenceInfo{}, err
	}
	return info.ProjectReferences, nil
}

// Sources returns the project's own source files followed by the sources
// exported to it by its dependencies.
func (w *Workspace) Sources(
	ctx context.Context,
	path, framework, configuration string,
) ([]string, bool, error) {
	info, ok, err := w.dependencyInfo(ctx, path, framework, configuration)
	if err != nil || !ok {
		return nil, ok, err
	}
	// The project stage is fresh after dependencyInfo, this lookup is a hit.
	id, err := domain.NewProjectID(path)
	if err != nil {
		return nil, false, err
	}
	project, ok, err := w.cache.Project(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}

	sources := make([]string, 0, len(project.SourceFiles)+len(info.ExportedSourceFiles))
	sources = append(sources, project.SourceFiles...)
	sources = append(sources, info.ExportedSourceFiles...)
	return sources, true, nil
}

// CompilerOptions merges the project, configuration and framework compiler
// options. The bool is false when the project does not declare framework.
func (w *Workspace) CompilerOptions(
	ctx context.Context,
	path, framework, configuration string,
) (domain.CompilerOptions, bool, error) {
	sel, err := parseSelector(path, framework, configuration)
	if err != nil {
		return domain.CompilerOptions{}, false, err
	}
	project, ok, err := w.cache.Project(ctx, sel.id)
	if err != nil || !ok {
		return domain.CompilerOptions{}, ok, err
	}
	if _, declared := project.TargetFramework(sel.framework); !declared {
		return domain.CompilerOptions{}, false, nil
	}
	return project.CompilerOptionsFor(sel.framework, sel.configuration.String()), true, nil
}

// Projects lists the directories of the projects found one level below the
// workspace search paths governing root, sorted.
func (w *Workspace) Projects(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	settings, err := w.settings.Load(abs)
	if err != nil {
		return nil, err
	}
	searchDirs := settings.ProjectDirs
	if settings.Path == "" {
		searchDirs = []string{abs}
	}

	dirs := []string{}
	for _, dir := range searchDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		manifests, err := w.resolver.ResolveInputs(dir, []string{"*/" + domain.ManifestFileName}, nil)
		if err != nil {
			return nil, err
		}
		for _, manifest := range manifests {
			projectDir := filepath.Dir(manifest)
			if !slices.Contains(dirs, projectDir) {
				dirs = append(dirs, projectDir)
			}
		}
	}
	slices.Sort(dirs)
	return dirs, nil
}

// Refresh reports that files of the project at path changed outside of its
// manifest. Cached results derived from the project are recomputed on the
// next query.
func (w *Workspace) Refresh(path string) error {
	id, err := domain.NewProjectID(path)
	if err != nil {
		return err
	}
	w.cache.Refresh(id)
	return nil
}
