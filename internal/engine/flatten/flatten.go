// Package flatten turns a resolved library graph into the dependency view
// consumed by build tooling.
package flatten

import (
	"context"
	"path/filepath"
	"slices"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// Flattener computes domain.DependencyInfo from a domain.ProjectContext.
type Flattener struct {
	exporter ports.Exporter
}

// New creates a Flattener that collects assets through exporter.
func New(exporter ports.Exporter) *Flattener {
	return &Flattener{exporter: exporter}
}

// Flatten describes every library of pc, classifies project libraries into
// project references or plain assembly references, and appends the assets
// exported to the root project. Lists keep graph order and are not deduplicated.
func (f *Flattener) Flatten(ctx context.Context, pc *domain.ProjectContext, configuration string) (*domain.DependencyInfo, error) {
	root, ok := pc.Root()
	if !ok {
		return nil, zerr.With(domain.ErrRootLibraryMissing, "project", pc.Project.Directory())
	}

	info := &domain.DependencyInfo{
		Diagnostics:         slices.Clone(pc.Diagnostics),
		Dependencies:        make([]domain.DependencyDescription, 0, len(pc.Libraries)),
		FileReferences:      []string{},
		ProjectReferences:   []domain.ProjectReferenceInfo{},
		ExportedSourceFiles: []string{},
	}
	if info.Diagnostics == nil {
		info.Diagnostics = []domain.DiagnosticMessage{}
	}

	bySource := make(map[domain.LibraryIdentity][]domain.DiagnosticMessage)
	for _, d := range pc.Diagnostics {
		bySource[d.Source] = append(bySource[d.Source], d)
	}
	candidates := newCandidates(pc.Libraries)

	for _, lib := range pc.Libraries {
		info.Dependencies = append(info.Dependencies, describe(lib, candidates, bySource[lib.Identity]))

		if lib == root || lib.Identity.Kind != domain.KindProject {
			continue
		}
		if lib.WrapsAssembly() {
			info.FileReferences = append(info.FileReferences,
				resolvePath(lib.ProjectDirectory(), lib.TargetFramework.AssemblyPath))
			continue
		}
		info.ProjectReferences = append(info.ProjectReferences, projectReference(lib))
	}

	exports, err := f.exporter.Export(ctx, root, pc, configuration)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to export dependencies"), "project", pc.Project.Directory())
	}
	for _, export := range exports {
		for _, asset := range export.CompilationAssemblies {
			info.FileReferences = append(info.FileReferences, asset.ResolvedPath)
		}
		info.ExportedSourceFiles = append(info.ExportedSourceFiles, export.SourceReferences...)
	}

	return info, nil
}

func describe(
	lib *domain.LibraryDescription,
	candidates candidates,
	diagnostics []domain.DiagnosticMessage,
) domain.DependencyDescription {
	desc := domain.DependencyDescription{
		Name:         lib.Identity.Name,
		DisplayName:  lib.Identity.Name,
		Kind:         lib.Identity.Kind,
		Path:         lib.Path,
		Resolved:     lib.Resolved,
		Dependencies: make([]domain.DependencyItem, 0, len(lib.Dependencies)),
		Errors:       []domain.DiagnosticMessage{},
		Warnings:     []domain.DiagnosticMessage{},
	}
	if lib.Resolved {
		desc.Version = lib.Identity.Version
	}

	for _, r := range lib.Dependencies {
		item := domain.DependencyItem{Name: r.Name}
		// An item without a version marks a dependency that did not resolve.
		if match, ok := candidates.first(r); ok && match.Resolved {
			item.Version = match.Identity.Version
		}
		desc.Dependencies = append(desc.Dependencies, item)
	}

	for _, d := range diagnostics {
		switch d.Severity {
		case domain.SeverityError:
			desc.Errors = append(desc.Errors, d)
		case domain.SeverityWarning:
			desc.Warnings = append(desc.Warnings, d)
		}
	}
	return desc
}

func projectReference(lib *domain.LibraryDescription) domain.ProjectReferenceInfo {
	ref := domain.ProjectReferenceInfo{
		Name:      lib.Identity.Name,
		Framework: lib.Framework,
		Path:      lib.Path,
	}
	if lib.TargetFramework != nil && lib.TargetFramework.WrappedProject != "" {
		ref.WrappedProjectPath = resolvePath(lib.ProjectDirectory(), lib.TargetFramework.WrappedProject)
	}
	return ref
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// candidates indexes libraries by name, keeping graph enumeration order.
type candidates map[string][]*domain.LibraryDescription

func newCandidates(libs []*domain.LibraryDescription) candidates {
	c := make(candidates, len(libs))
	for _, lib := range libs {
		c[lib.Identity.Name] = append(c[lib.Identity.Name], lib)
	}
	return c
}

// first picks the first library named like r whose kind r accepts. When
// several libraries share a name the winner depends on graph order.
func (c candidates) first(r domain.LibraryRange) (*domain.LibraryDescription, bool) {
	for _, lib := range c[r.Name] {
		if r.Accepts(lib.Identity.Kind) {
			return lib, true
		}
	}
	return nil, false
}
