package graph

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/loom/internal/adapters/logger"
	"go.trai.ch/loom/internal/adapters/manifest"
	"go.trai.ch/loom/internal/core/ports"
)

const NodeID graft.ID = "adapter.graph"

func init() {
	graft.Register(graft.Node[ports.GraphBuilder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{manifest.ReaderNodeID, manifest.SettingsNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.GraphBuilder, error) {
			reader, err := graft.Dep[ports.ManifestReader](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[ports.SettingsLoader](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewBuilder(reader, settings, log), nil
		},
	})
}
