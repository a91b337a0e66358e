// Package graphcache memoizes the three resolution stages of a project:
// manifest, framework graph and flattened dependency information.
//
// Each stage triggers a named token in the registry when it recomputes and the
// stage above monitors that token, so a change at any level invalidates
// exactly the results derived from it.
package graphcache

import (
	"context"
	"errors"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/loom/internal/engine/flatten"
	"go.trai.ch/loom/internal/engine/memo"
)

type projectResult struct {
	project    *domain.Project
	generation uint64
}

type contextResult struct {
	context    *domain.ProjectContext
	generation uint64
}

// GraphCache resolves projects through the memoized pipeline. It owns its
// registry, so separate instances never share invalidation state.
type GraphCache struct {
	registry  *memo.Registry
	projects  *memo.Cache[domain.CacheKey, projectResult]
	contexts  *memo.Cache[domain.CacheKey, contextResult]
	infos     *memo.Cache[domain.CacheKey, *domain.DependencyInfo]
	reader    ports.ManifestReader
	builder   ports.GraphBuilder
	flattener *flatten.Flattener
	logger    ports.Logger
	tracer    ports.Tracer
}

// New creates a GraphCache with an empty registry.
func New(
	reader ports.ManifestReader,
	builder ports.GraphBuilder,
	flattener *flatten.Flattener,
	logger ports.Logger,
	tracer ports.Tracer,
) *GraphCache {
	return &GraphCache{
		registry:  memo.NewRegistry(),
		projects:  memo.New[domain.CacheKey, projectResult]("project"),
		contexts:  memo.New[domain.CacheKey, contextResult]("context"),
		infos:     memo.New[domain.CacheKey, *domain.DependencyInfo]("depinfo"),
		reader:    reader,
		builder:   builder,
		flattener: flattener,
		logger:    logger,
		tracer:    tracer,
	}
}

// filesToken is triggered by Refresh when files of a project other than its
// manifest changed.
func filesToken(id domain.ProjectID) string {
	return "files@" + id.Dir()
}

// Refresh marks the source files of a project as changed. The next lookup
// re-reads the manifest and recomputes every stage derived from it.
func (g *GraphCache) Refresh(id domain.ProjectID) {
	generation := g.registry.Trigger(filesToken(id))
	g.logger.Debug("project files refreshed", "project", id.Dir(), "generation", generation)
}

// Project returns the parsed manifest of id. The bool is false when the
// manifest is missing or invalid.
func (g *GraphCache) Project(ctx context.Context, id domain.ProjectID) (*domain.Project, bool, error) {
	res, ok, err := g.project(ctx, id)
	return res.project, ok, err
}

// ProjectContext returns the library graph of id for fw. The bool is false
// when the project is absent or does not declare fw.
func (g *GraphCache) ProjectContext(
	ctx context.Context,
	id domain.ProjectID,
	fw domain.Framework,
) (*domain.ProjectContext, bool, error) {
	res, ok, err := g.projectContext(ctx, id, fw)
	return res.context, ok, err
}

// DependencyInfo returns the flattened dependencies of id for fw and
// configuration. The bool is false when a lower stage is absent.
func (g *GraphCache) DependencyInfo(
	ctx context.Context,
	id domain.ProjectID,
	fw domain.Framework,
	configuration domain.InternedString,
) (*domain.DependencyInfo, bool, error) {
	// The context is resolved before the cached lookup so that a stale lower
	// stage recomputes and triggers its token before this entry is validated.
	cr, ok, err := g.projectContext(ctx, id, fw)
	if err != nil || !ok {
		return nil, ok, err
	}

	key := domain.DependencyInfoKey(id, fw, configuration)
	info, err := g.infos.Get(ctx, key, func(c *memo.Computation[domain.CacheKey]) (*domain.DependencyInfo, error) {
		spanCtx, span := g.tracer.Start(c.Context(), "graphcache.depinfo")
		defer span.End()
		span.SetAttribute("project", id.Dir())
		span.SetAttribute("framework", fw.String())
		span.SetAttribute("configuration", configuration.String())

		generation := g.registry.Trigger(key.String())
		c.Monitor(g.registry.DependencyAt(domain.ContextKey(id, fw).String(), cr.generation))
		g.logger.Debug("flattening dependencies", "key", key.String(), "generation", generation)

		info, err := g.flattener.Flatten(spanCtx, cr.context, configuration.String())
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return info, nil
	})
	return present(info, err)
}

func (g *GraphCache) project(ctx context.Context, id domain.ProjectID) (projectResult, bool, error) {
	key := domain.ProjectKey(id)
	res, err := g.projects.Get(ctx, key, func(c *memo.Computation[domain.CacheKey]) (projectResult, error) {
		_, span := g.tracer.Start(c.Context(), "graphcache.project")
		defer span.End()
		span.SetAttribute("project", id.Dir())

		generation := g.registry.Trigger(key.String())
		c.Monitor(memo.NewFileDependency(id.ManifestPath()))
		c.Monitor(g.registry.GetDependency(filesToken(id)))
		g.logger.Debug("reading manifest", "key", key.String(), "generation", generation)

		project, err := g.reader.ReadProject(id)
		if err != nil {
			span.RecordError(err)
			return projectResult{}, err
		}
		return projectResult{project: project, generation: generation}, nil
	})
	if errors.Is(err, domain.ErrManifestInvalid) {
		g.logger.Warn("ignoring invalid manifest", "project", id.Dir(), "error", err.Error())
	}
	return present(res, err)
}

func (g *GraphCache) projectContext(
	ctx context.Context,
	id domain.ProjectID,
	fw domain.Framework,
) (contextResult, bool, error) {
	pr, ok, err := g.project(ctx, id)
	if err != nil || !ok {
		return contextResult{}, ok, err
	}

	key := domain.ContextKey(id, fw)
	res, err := g.contexts.Get(ctx, key, func(c *memo.Computation[domain.CacheKey]) (contextResult, error) {
		spanCtx, span := g.tracer.Start(c.Context(), "graphcache.context")
		defer span.End()
		span.SetAttribute("project", id.Dir())
		span.SetAttribute("framework", fw.String())

		generation := g.registry.Trigger(key.String())
		c.Monitor(g.registry.DependencyAt(domain.ProjectKey(id).String(), pr.generation))
		g.logger.Debug("building library graph", "key", key.String(), "generation", generation)

		pc, err := g.builder.Build(spanCtx, pr.project, fw)
		if err != nil {
			span.RecordError(err)
			return contextResult{}, err
		}
		for _, input := range pc.InputFiles {
			if input.Exists {
				c.Monitor(memo.FileDependencyAt(input.Path, input.ModTime))
			} else {
				c.Monitor(memo.NewAbsenceDependency(input.Path))
			}
		}
		// Exported shared sources of referenced projects follow their refreshes.
		for _, lib := range pc.Libraries {
			if lib.Project != nil && lib.Project.ID != id {
				c.Monitor(g.registry.GetDependency(filesToken(lib.Project.ID)))
			}
		}
		span.SetAttribute("libraries", len(pc.Libraries))
		return contextResult{context: pc, generation: generation}, nil
	})
	return present(res, err)
}

// present maps absence errors to a false presence flag.
func present[V any](value V, err error) (V, bool, error) {
	if err == nil {
		return value, true, nil
	}
	var zero V
	if domain.IsAbsent(err) {
		return zero, false, nil
	}
	return zero, false, err
}
