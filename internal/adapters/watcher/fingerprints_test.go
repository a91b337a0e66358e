package watcher_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/adapters/fs"
	"go.trai.ch/loom/internal/adapters/watcher"
	"go.trai.ch/loom/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestFingerprints_IgnoresTouchOnlyChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Program.cs")
	require.NoError(t, os.WriteFile(path, []byte("class Program {}"), 0o600))

	f := watcher.NewFingerprints(fs.NewHasher())
	f.Record([]string{path})

	require.NoError(t, os.WriteFile(path, []byte("class Program {}"), 0o600))
	assert.Empty(t, f.Changed([]string{path}))

	require.NoError(t, os.WriteFile(path, []byte("class Program { }"), 0o600))
	assert.Equal(t, []string{path}, f.Changed([]string{path}))
	assert.Empty(t, f.Changed([]string{path}), "the new content becomes the baseline")
}

func TestFingerprints_UnknownAndRemovedPathsChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	hasher := mocks.NewMockHasher(ctrl)

	gomock.InOrder(
		hasher.EXPECT().ComputeFileHash("/ws/App/new.cs").Return(uint64(7), nil),
		hasher.EXPECT().ComputeFileHash("/ws/App/new.cs").Return(uint64(0), errors.New("no such file")),
		hasher.EXPECT().ComputeFileHash("/ws/App/new.cs").Return(uint64(7), nil),
	)

	f := watcher.NewFingerprints(hasher)
	assert.Equal(t, []string{"/ws/App/new.cs"}, f.Changed([]string{"/ws/App/new.cs"}))
	assert.Equal(t, []string{"/ws/App/new.cs"}, f.Changed([]string{"/ws/App/new.cs"}))
	assert.Equal(t, []string{"/ws/App/new.cs"}, f.Changed([]string{"/ws/App/new.cs"}))
}
