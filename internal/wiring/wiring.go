// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/loom/internal/adapters/exporter"
	_ "go.trai.ch/loom/internal/adapters/fs"
	_ "go.trai.ch/loom/internal/adapters/graph"
	_ "go.trai.ch/loom/internal/adapters/logger"
	_ "go.trai.ch/loom/internal/adapters/manifest"
	_ "go.trai.ch/loom/internal/adapters/telemetry"
	_ "go.trai.ch/loom/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/loom/internal/app"
)
