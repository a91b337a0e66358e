package app

import (
	"go.trai.ch/loom/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/loom/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	Workspace    *Workspace
	Logger       ports.Logger
	NewWatcher   watcher.Factory
	Fingerprints ChangeFilter
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(
	workspace *Workspace,
	logger ports.Logger,
	newWatcher watcher.Factory,
	fingerprints ChangeFilter,
) *Components {
	return &Components{
		Workspace:    workspace,
		Logger:       logger,
		NewWatcher:   newWatcher,
		Fingerprints: fingerprints,
	}
}
