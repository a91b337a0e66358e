package ports

import (
	"context"

	"go.trai.ch/loom/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=graph.go -destination=mocks/mock_graph.go -package=mocks

// GraphBuilder resolves the library graph of a project for one framework.
type GraphBuilder interface {
	// Build returns domain.ErrFrameworkNotFound when the project does not
	// declare fw. Unresolvable dependencies are reported as diagnostics in the
	// returned context, not as errors.
	Build(ctx context.Context, project *domain.Project, fw domain.Framework) (*domain.ProjectContext, error)
}

// Exporter computes what libraries contribute to compilation.
type Exporter interface {
	// Export returns the exports of every library reachable from root, root excluded.
	Export(
		ctx context.Context,
		root *domain.LibraryDescription,
		pc *domain.ProjectContext,
		configuration string,
	) ([]domain.LibraryExport, error)
}
