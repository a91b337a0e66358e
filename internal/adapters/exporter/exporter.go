// Package exporter collects the compilation assets and shared sources that
// libraries contribute to a root project.
package exporter

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Exporter = (*Exporter)(nil)

// Exporter implements ports.Exporter for the local package layout.
type Exporter struct {
	resolver ports.InputResolver
}

// New creates an Exporter.
func New(resolver ports.InputResolver) *Exporter {
	return &Exporter{resolver: resolver}
}

// Export walks the dependencies of root breadth first and returns one export
// per reachable library. The configuration does not affect local assets.
func (e *Exporter) Export(
	ctx context.Context,
	root *domain.LibraryDescription,
	pc *domain.ProjectContext,
	_ string,
) ([]domain.LibraryExport, error) {
	byName := make(map[string][]*domain.LibraryDescription, len(pc.Libraries))
	for _, lib := range pc.Libraries {
		byName[lib.Identity.Name] = append(byName[lib.Identity.Name], lib)
	}

	visited := map[*domain.LibraryDescription]bool{root: true}
	exports := make([]domain.LibraryExport, 0, len(pc.Libraries))

	for queue := []*domain.LibraryDescription{root}; len(queue) > 0; queue = queue[1:] {
		if err := ctx.Err(); err != nil {
			return nil, zerr.Wrap(err, "export interrupted")
		}
		for _, dep := range queue[0].Dependencies {
			lib := match(byName[dep.Name], dep)
			if lib == nil || visited[lib] {
				continue
			}
			visited[lib] = true
			queue = append(queue, lib)

			export, err := e.export(lib, pc.Framework)
			if err != nil {
				return nil, err
			}
			exports = append(exports, export)
		}
	}
	return exports, nil
}

func match(libs []*domain.LibraryDescription, dep domain.LibraryRange) *domain.LibraryDescription {
	for _, lib := range libs {
		if dep.Accepts(lib.Identity.Kind) {
			return lib
		}
	}
	return nil
}

func (e *Exporter) export(lib *domain.LibraryDescription, fw domain.Framework) (domain.LibraryExport, error) {
	export := domain.LibraryExport{
		Library:               lib.Identity,
		CompilationAssemblies: []domain.Asset{},
		SourceReferences:      []string{},
	}
	if !lib.Resolved {
		return export, nil
	}

	switch lib.Identity.Kind {
	case domain.KindPackage:
		assemblies, err := e.resolver.ResolveInputs(lib.Path, []string{"lib/" + fw.String() + "/*.dll"}, nil)
		if err != nil {
			return export, exportFailed(lib, err)
		}
		for _, path := range assemblies {
			export.CompilationAssemblies = append(export.CompilationAssemblies, domain.Asset{
				Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				ResolvedPath: path,
			})
		}
		shared, err := e.resolver.ResolveInputs(lib.Path, []string{"shared/**"}, nil)
		if err != nil {
			return export, exportFailed(lib, err)
		}
		export.SourceReferences = append(export.SourceReferences, shared...)

	case domain.KindAssembly:
		export.CompilationAssemblies = append(export.CompilationAssemblies, domain.Asset{
			Name:         lib.Identity.Name,
			ResolvedPath: lib.Path,
		})

	case domain.KindProject:
		if lib.WrapsAssembly() || lib.Project == nil {
			return export, nil
		}
		export.SourceReferences = append(export.SourceReferences, lib.Project.SharedFiles...)
	}
	return export, nil
}

func exportFailed(lib *domain.LibraryDescription, err error) error {
	return zerr.With(zerr.Wrap(domain.ErrExportFailed, err.Error()), "library", lib.Identity.String())
}
