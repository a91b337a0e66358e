package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/adapters/exporter"  //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/graph"     //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/manifest"  //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/core/ports"
)

const (
	// WorkspaceNodeID is the unique identifier for the Workspace Graft node.
	WorkspaceNodeID graft.ID = "app.workspace"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*Workspace]{
		ID:        WorkspaceNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifest.ReaderNodeID,
			manifest.SettingsNodeID,
			graph.NodeID,
			exporter.NodeID,
			fs.ResolverNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runWorkspaceNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			WorkspaceNodeID,
			logger.NodeID,
			watcher.WatcherNodeID,
			watcher.FingerprintsNodeID,
		},
		Run: runComponentsNode,
	})
}

func runWorkspaceNode(ctx context.Context) (*Workspace, error) {
	reader, err := graft.Dep[ports.ManifestReader](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[ports.SettingsLoader](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[ports.GraphBuilder](ctx)
	if err != nil {
		return nil, err
	}

	exp, err := graft.Dep[ports.Exporter](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.InputResolver](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return NewWorkspace(reader, builder, exp, settings, resolver, log, tracer), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	workspace, err := graft.Dep[*Workspace](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	newWatcher, err := graft.Dep[watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}

	fingerprints, err := graft.Dep[*watcher.Fingerprints](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(workspace, log, newWatcher, fingerprints), nil
}
