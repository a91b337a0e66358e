package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/adapters/watcher"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/loom/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "App", "obj"), 0o750))

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, root))

	target := filepath.Join(root, "App", "project.yaml")
	require.NoError(t, os.WriteFile(target, []byte("frameworks:\n  net8.0:\n"), 0o600))

	events := make(chan ports.WatchEvent, 16)
	go func() {
		for event := range w.Events() {
			events <- event
		}
		close(events)
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Path == target {
				assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, event.Operation)
				require.NoError(t, w.Stop())
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for watch event")
		}
	}
}
