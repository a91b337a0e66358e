package graphcache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/loom/internal/core/ports/mocks"
	"go.trai.ch/loom/internal/engine/flatten"
	"go.trai.ch/loom/internal/engine/graphcache"
	"go.uber.org/mock/gomock"
)

var (
	net8  = domain.MustParseFramework("net8.0")
	debug = domain.NewInternedString("Debug")
)

type harness struct {
	cache    *graphcache.GraphCache
	reader   *mocks.MockManifestReader
	builder  *mocks.MockGraphBuilder
	exporter *mocks.MockExporter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) { return ctx, span }).
		AnyTimes()

	h := &harness{
		reader:   mocks.NewMockManifestReader(ctrl),
		builder:  mocks.NewMockGraphBuilder(ctrl),
		exporter: mocks.NewMockExporter(ctrl),
	}
	h.cache = graphcache.New(h.reader, h.builder, flatten.New(h.exporter), logger, tracer)
	return h
}

// writeProject creates a manifest on disk so file dependencies can observe it.
func writeProject(t *testing.T, root, name string) *domain.Project {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte("name: "+name+"\n"), 0o600))

	id, err := domain.NewProjectID(dir)
	require.NoError(t, err)
	return &domain.Project{
		ID:         id,
		Name:       name,
		Frameworks: []domain.TargetFrameworkInfo{{Framework: net8}},
	}
}

func contextFor(p *domain.Project, inputs ...domain.InputFile) *domain.ProjectContext {
	return &domain.ProjectContext{
		Project:   p,
		Framework: net8,
		Libraries: []*domain.LibraryDescription{{
			Identity:        domain.LibraryIdentity{Name: p.Name, Kind: domain.KindProject},
			Resolved:        true,
			Framework:       net8,
			Path:            p.ManifestPath(),
			Project:         p,
			TargetFramework: &p.Frameworks[0],
		}},
		InputFiles: inputs,
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
}

func (h *harness) expectResolve(p *domain.Project, times int) {
	h.reader.EXPECT().ReadProject(p.ID).Return(p, nil).Times(times)
	h.builder.EXPECT().Build(gomock.Any(), p, net8).
		DoAndReturn(func(context.Context, *domain.Project, domain.Framework) (*domain.ProjectContext, error) {
			return contextFor(p), nil
		}).Times(times)
	h.exporter.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any(), "Debug").Return(nil, nil).Times(times)
}

func TestGraphCache_Memoizes(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	h.expectResolve(p, 1)
	ctx := context.Background()

	first, ok, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	require.True(t, ok)

	second, ok, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, first, second)

	pc, ok, err := h.cache.ProjectContext(ctx, p.ID, net8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "app", pc.Project.Name)
}

func TestGraphCache_RefreshIsPrecise(t *testing.T) {
	h := newHarness(t)
	root := t.TempDir()
	p := writeProject(t, root, "p")
	q := writeProject(t, root, "q")
	h.expectResolve(p, 2)
	h.expectResolve(q, 1)
	ctx := context.Background()

	p1, _, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	q1, _, err := h.cache.DependencyInfo(ctx, q.ID, net8, debug)
	require.NoError(t, err)

	h.cache.Refresh(p.ID)

	p2, ok, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	require.True(t, ok)
	q2, ok, err := h.cache.DependencyInfo(ctx, q.ID, net8, debug)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NotSame(t, p1, p2)
	assert.Same(t, q1, q2)
}

func TestGraphCache_ManifestEditRecomputesChain(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	h.expectResolve(p, 2)
	ctx := context.Background()

	before, _, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	pcBefore, _, err := h.cache.ProjectContext(ctx, p.ID, net8)
	require.NoError(t, err)

	touch(t, p.ManifestPath())

	after, ok, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	require.True(t, ok)
	pcAfter, _, err := h.cache.ProjectContext(ctx, p.ID, net8)
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.NotSame(t, pcBefore, pcAfter)
}

func TestGraphCache_InputFileEditRecomputesContext(t *testing.T) {
	h := newHarness(t)
	root := t.TempDir()
	p := writeProject(t, root, "app")
	sibling := writeProject(t, root, "lib")
	probe := filepath.Join(root, "packages", "Json", "package.yaml")
	ctx := context.Background()

	h.reader.EXPECT().ReadProject(p.ID).Return(p, nil).Times(1)
	h.builder.EXPECT().Build(gomock.Any(), p, net8).
		DoAndReturn(func(context.Context, *domain.Project, domain.Framework) (*domain.ProjectContext, error) {
			info, err := os.Stat(sibling.ManifestPath())
			if err != nil {
				return nil, err
			}
			probeInput := domain.InputFile{Path: probe}
			if probeInfo, err := os.Stat(probe); err == nil {
				probeInput = domain.InputFile{Path: probe, ModTime: probeInfo.ModTime(), Exists: true}
			}
			return contextFor(p,
				domain.InputFile{Path: sibling.ManifestPath(), ModTime: info.ModTime(), Exists: true},
				probeInput,
			), nil
		}).Times(3)
	h.exporter.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any(), "Debug").Return(nil, nil).Times(3)

	_, _, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	_, _, err = h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)

	touch(t, sibling.ManifestPath())
	_, _, err = h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(probe), 0o750))
	require.NoError(t, os.WriteFile(probe, []byte("name: Json\n"), 0o600))
	_, ok, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGraphCache_AbsenceIsNotCached(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	ctx := context.Background()

	gomock.InOrder(
		h.reader.EXPECT().ReadProject(p.ID).Return(nil, domain.ErrManifestNotFound).Times(2),
		h.reader.EXPECT().ReadProject(p.ID).Return(p, nil),
	)
	h.builder.EXPECT().Build(gomock.Any(), p, net8).Return(contextFor(p), nil)
	h.exporter.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any(), "Debug").Return(nil, nil)

	info, ok, err := h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, info)

	project, ok, err := h.cache.Project(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, project)

	info, ok, err = h.cache.DependencyInfo(ctx, p.ID, net8, debug)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, info)
}

func TestGraphCache_InvalidManifestIsAbsent(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	h.reader.EXPECT().ReadProject(p.ID).Return(nil, domain.ErrManifestInvalid)

	_, ok, err := h.cache.ProjectContext(context.Background(), p.ID, net8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphCache_UnknownFrameworkIsAbsent(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	net472 := domain.MustParseFramework("net472")
	ctx := context.Background()

	h.reader.EXPECT().ReadProject(p.ID).Return(p, nil).Times(1)
	h.builder.EXPECT().Build(gomock.Any(), p, net472).Return(nil, domain.ErrFrameworkNotFound).Times(2)

	for range 2 {
		info, ok, err := h.cache.DependencyInfo(ctx, p.ID, net472, debug)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, info)
	}
}

func TestGraphCache_ErrorsPropagate(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	boom := errors.New("disk on fire")

	h.reader.EXPECT().ReadProject(p.ID).Return(p, nil)
	h.builder.EXPECT().Build(gomock.Any(), p, net8).Return(nil, boom)

	_, ok, err := h.cache.DependencyInfo(context.Background(), p.ID, net8, debug)
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestGraphCache_ConcurrentCallersShareComputation(t *testing.T) {
	h := newHarness(t)
	p := writeProject(t, t.TempDir(), "app")
	h.expectResolve(p, 1)

	const callers = 12
	results := make([]*domain.DependencyInfo, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Go(func() {
			info, ok, err := h.cache.DependencyInfo(context.Background(), p.ID, net8, debug)
			assert.NoError(t, err)
			assert.True(t, ok)
			results[i] = info
		})
	}
	wg.Wait()

	for _, info := range results[1:] {
		assert.Same(t, results[0], info)
	}
}

func TestGraphCache_RefreshOfReferencedProjectRecomputesContext(t *testing.T) {
	h := newHarness(t)
	root := t.TempDir()
	p := writeProject(t, root, "app")
	lib := writeProject(t, root, "lib")
	ctx := context.Background()

	h.reader.EXPECT().ReadProject(p.ID).Return(p, nil).Times(1)
	h.builder.EXPECT().Build(gomock.Any(), p, net8).
		DoAndReturn(func(context.Context, *domain.Project, domain.Framework) (*domain.ProjectContext, error) {
			pc := contextFor(p)
			pc.Libraries = append(pc.Libraries, &domain.LibraryDescription{
				Identity: domain.LibraryIdentity{Name: "lib", Version: "1.0.0", Kind: domain.KindProject},
				Resolved: true,
				Project:  lib,
				Path:     lib.ManifestPath(),
			})
			return pc, nil
		}).Times(2)

	first, _, err := h.cache.ProjectContext(ctx, p.ID, net8)
	require.NoError(t, err)

	h.cache.Refresh(lib.ID)

	second, ok, err := h.cache.ProjectContext(ctx, p.ID, net8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotSame(t, first, second)
}
