package flatten_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports/mocks"
	"go.trai.ch/loom/internal/engine/flatten"
	"go.uber.org/mock/gomock"
)

var net8 = domain.MustParseFramework("net8.0")

func project(t *testing.T, dir, name string, tf domain.TargetFrameworkInfo, deps ...domain.LibraryRange) *domain.LibraryDescription {
	t.Helper()
	id, err := domain.NewProjectID(dir)
	require.NoError(t, err)
	tf.Framework = net8
	p := &domain.Project{ID: id, Name: name, Frameworks: []domain.TargetFrameworkInfo{tf}}
	return &domain.LibraryDescription{
		Identity:        domain.LibraryIdentity{Name: name, Kind: domain.KindProject},
		Resolved:        true,
		Dependencies:    deps,
		Framework:       net8,
		Path:            id.ManifestPath(),
		Project:         p,
		TargetFramework: &p.Frameworks[0],
	}
}

func pkg(name, version string, deps ...domain.LibraryRange) *domain.LibraryDescription {
	return &domain.LibraryDescription{
		Identity:     domain.LibraryIdentity{Name: name, Version: version, Kind: domain.KindPackage},
		Resolved:     true,
		Dependencies: deps,
		Framework:    net8,
		Path:         filepath.Join("/ws/packages", name, version),
	}
}

func contextOf(libs ...*domain.LibraryDescription) *domain.ProjectContext {
	return &domain.ProjectContext{Project: libs[0].Project, Framework: net8, Libraries: libs}
}

func TestFlatten_Scenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	exporter := mocks.NewMockExporter(ctrl)

	a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{},
		domain.LibraryRange{Name: "B", Target: domain.KindProject},
		domain.LibraryRange{Name: "C", MinVersion: "1.0.0"})
	b := project(t, "/ws/b", "B", domain.TargetFrameworkInfo{})
	c := pkg("C", "1.2.0")
	pc := contextOf(a, b, c)

	exporter.EXPECT().Export(gomock.Any(), a, pc, "Debug").Return([]domain.LibraryExport{
		{
			Library:               c.Identity,
			CompilationAssemblies: []domain.Asset{{Name: "C.dll", ResolvedPath: "/ws/packages/C/1.2.0/lib/net8.0/C.dll"}},
			SourceReferences:      []string{"/ws/packages/C/1.2.0/shared/Helpers.cs"},
		},
	}, nil)

	info, err := flatten.New(exporter).Flatten(context.Background(), pc, "Debug")
	require.NoError(t, err)

	want := []domain.DependencyDescription{
		{
			Name: "A", DisplayName: "A", Kind: domain.KindProject, Path: "/ws/a/project.yaml", Resolved: true,
			Dependencies: []domain.DependencyItem{{Name: "B"}, {Name: "C", Version: "1.2.0"}},
			Errors:       []domain.DiagnosticMessage{}, Warnings: []domain.DiagnosticMessage{},
		},
		{
			Name: "B", DisplayName: "B", Kind: domain.KindProject, Path: "/ws/b/project.yaml", Resolved: true,
			Dependencies: []domain.DependencyItem{},
			Errors:       []domain.DiagnosticMessage{}, Warnings: []domain.DiagnosticMessage{},
		},
		{
			Name: "C", DisplayName: "C", Version: "1.2.0", Kind: domain.KindPackage, Path: "/ws/packages/C/1.2.0", Resolved: true,
			Dependencies: []domain.DependencyItem{},
			Errors:       []domain.DiagnosticMessage{}, Warnings: []domain.DiagnosticMessage{},
		},
	}
	if diff := cmp.Diff(want, info.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, info.ProjectReferences, 1)
	assert.Equal(t, domain.ProjectReferenceInfo{Name: "B", Framework: net8, Path: "/ws/b/project.yaml"}, info.ProjectReferences[0])
	assert.Equal(t, []string{"/ws/packages/C/1.2.0/lib/net8.0/C.dll"}, info.FileReferences)
	assert.Equal(t, []string{"/ws/packages/C/1.2.0/shared/Helpers.cs"}, info.ExportedSourceFiles)
	assert.Empty(t, info.Diagnostics)
	assert.NotNil(t, info.Diagnostics)
}

func TestFlatten_AssemblyWrapping(t *testing.T) {
	ctrl := gomock.NewController(t)
	exporter := mocks.NewMockExporter(ctrl)

	a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{},
		domain.LibraryRange{Name: "D"}, domain.LibraryRange{Name: "E"})
	d := project(t, "/ws/d", "D", domain.TargetFrameworkInfo{AssemblyPath: "bin/D.dll"})
	e := project(t, "/ws/e", "E", domain.TargetFrameworkInfo{AssemblyPath: "out/E.dll", WrappedProject: "../native/E.vcxproj"})
	pc := contextOf(a, d, e)

	exporter.EXPECT().Export(gomock.Any(), a, pc, "Release").Return(nil, nil)

	info, err := flatten.New(exporter).Flatten(context.Background(), pc, "Release")
	require.NoError(t, err)

	assert.Equal(t, []string{"/ws/d/bin/D.dll"}, info.FileReferences)
	require.Len(t, info.ProjectReferences, 1)
	assert.Equal(t, "E", info.ProjectReferences[0].Name)
	assert.Equal(t, "/ws/native/E.vcxproj", info.ProjectReferences[0].WrappedProjectPath)
	assert.Len(t, info.Dependencies, 3)
}

func TestFlatten_DiagnosticsPartitioned(t *testing.T) {
	ctrl := gomock.NewController(t)
	exporter := mocks.NewMockExporter(ctrl)

	a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{},
		domain.LibraryRange{Name: "Missing", MinVersion: "2.0.0"})
	missing := &domain.LibraryDescription{
		Identity:  domain.LibraryIdentity{Name: "Missing", Version: "2.0.0", Kind: domain.KindUnresolved},
		Framework: net8,
	}
	pc := contextOf(a, missing)
	unresolved := domain.DiagnosticMessage{
		Code: domain.CodeUnresolvedDependency, Message: "unable to resolve Missing >= 2.0.0",
		Severity: domain.SeverityError, Source: a.Identity,
	}
	conflict := domain.DiagnosticMessage{
		Code: domain.CodeVersionConflict, Message: "conflict", Severity: domain.SeverityWarning, Source: a.Identity,
	}
	note := domain.DiagnosticMessage{Message: "fyi", Severity: domain.SeverityInfo, Source: a.Identity}
	pc.Diagnostics = []domain.DiagnosticMessage{unresolved, conflict, note}

	exporter.EXPECT().Export(gomock.Any(), a, pc, "Debug").Return(nil, nil)

	info, err := flatten.New(exporter).Flatten(context.Background(), pc, "Debug")
	require.NoError(t, err)

	require.Len(t, info.Dependencies, 2)
	root := info.Dependencies[0]
	assert.Equal(t, []domain.DiagnosticMessage{unresolved}, root.Errors)
	assert.Equal(t, []domain.DiagnosticMessage{conflict}, root.Warnings)
	assert.Equal(t, []domain.DependencyItem{{Name: "Missing"}}, root.Dependencies,
		"an unresolved candidate leaves the item without a version")

	assert.False(t, info.Dependencies[1].Resolved)
	assert.Empty(t, info.Dependencies[1].Version)
	assert.Len(t, info.Diagnostics, 3)
}

func TestFlatten_FirstCandidateWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	exporter := mocks.NewMockExporter(ctrl)

	a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{},
		domain.LibraryRange{Name: "Json"},
		domain.LibraryRange{Name: "Json", Target: domain.KindPackage},
		domain.LibraryRange{Name: "Json", Target: domain.KindAssembly})
	jsonProject := project(t, "/ws/json", "Json", domain.TargetFrameworkInfo{})
	jsonProject.Identity.Version = "0.1.0"
	jsonPackage := pkg("Json", "13.0.1")
	pc := contextOf(a, jsonProject, jsonPackage)

	exporter.EXPECT().Export(gomock.Any(), a, pc, "Debug").Return(nil, nil)

	info, err := flatten.New(exporter).Flatten(context.Background(), pc, "Debug")
	require.NoError(t, err)

	assert.Equal(t, []domain.DependencyItem{
		{Name: "Json", Version: "0.1.0"},
		{Name: "Json", Version: "13.0.1"},
		{Name: "Json"},
	}, info.Dependencies[0].Dependencies)
}

func TestFlatten_ExportsAreNotDeduplicated(t *testing.T) {
	ctrl := gomock.NewController(t)
	exporter := mocks.NewMockExporter(ctrl)

	a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{})
	pc := contextOf(a)
	asset := domain.Asset{Name: "X.dll", ResolvedPath: "/ws/packages/X/1.0.0/lib/net8.0/X.dll"}

	exporter.EXPECT().Export(gomock.Any(), a, pc, "Debug").Return([]domain.LibraryExport{
		{CompilationAssemblies: []domain.Asset{asset}},
		{CompilationAssemblies: []domain.Asset{asset}},
	}, nil)

	info, err := flatten.New(exporter).Flatten(context.Background(), pc, "Debug")
	require.NoError(t, err)
	assert.Equal(t, []string{asset.ResolvedPath, asset.ResolvedPath}, info.FileReferences)
}

func TestFlatten_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exporter := mocks.NewMockExporter(ctrl)
		a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{})

		_, err := flatten.New(exporter).Flatten(context.Background(), &domain.ProjectContext{Project: a.Project}, "Debug")
		require.ErrorIs(t, err, domain.ErrRootLibraryMissing)
	})

	t.Run("export failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		exporter := mocks.NewMockExporter(ctrl)
		a := project(t, "/ws/a", "A", domain.TargetFrameworkInfo{})
		pc := contextOf(a)
		boom := errors.New("boom")
		exporter.EXPECT().Export(gomock.Any(), a, pc, "Debug").Return(nil, boom)

		_, err := flatten.New(exporter).Flatten(context.Background(), pc, "Debug")
		require.ErrorIs(t, err, boom)
	})
}
