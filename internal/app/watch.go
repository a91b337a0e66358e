package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"go.trai.ch/loom/internal/adapters/watcher" //nolint:depguard // Debouncer is shared with the watcher adapter
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// ChangeFilter drops paths whose content did not change since they were
// last seen.
type ChangeFilter interface {
	Record(paths []string)
	Changed(paths []string) []string
}

// WatchOptions selects what Watch reports.
type WatchOptions struct {
	// Framework restricts the snapshot to one framework. Empty means every
	// framework the project declares.
	Framework     string
	Configuration string
	Debounce      time.Duration
}

// FrameworkSnapshot is the resolved state of a project for one framework.
type FrameworkSnapshot struct {
	Framework      string   `json:"framework"`
	Absent         bool     `json:"absent,omitempty"`
	Dependencies   []string `json:"dependencies"`
	Diagnostics    []string `json:"diagnostics"`
	FileReferences []string `json:"fileReferences"`
	Sources        []string `json:"sources"`
}

// Snapshot is the resolved state of a watched project. Watch reports a
// snapshot whenever it differs from the previous one.
type Snapshot struct {
	Project    string              `json:"project"`
	Absent     bool                `json:"absent,omitempty"`
	Frameworks []FrameworkSnapshot `json:"frameworks"`
}

// Snapshot resolves the project at path for the frameworks selected by opts.
func (w *Workspace) Snapshot(ctx context.Context, path string, opts WatchOptions) (*Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Project: abs, Frameworks: []FrameworkSnapshot{}}

	info, ok, err := w.ProjectInfo(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		snap.Absent = true
		return snap, nil
	}

	frameworks := []string{opts.Framework}
	if opts.Framework == "" {
		frameworks = make([]string, 0, len(info.Frameworks))
		for _, fw := range info.Frameworks {
			frameworks = append(frameworks, fw.String())
		}
	}

	for _, fw := range frameworks {
		fs, err := w.frameworkSnapshot(ctx, path, fw, opts.Configuration)
		if err != nil {
			return nil, err
		}
		snap.Frameworks = append(snap.Frameworks, fs)
	}
	return snap, nil
}

func (w *Workspace) frameworkSnapshot(ctx context.Context, path, fw, configuration string) (FrameworkSnapshot, error) {
	fs := FrameworkSnapshot{Framework: fw}

	info, ok, err := w.dependencyInfo(ctx, path, fw, configuration)
	if err != nil {
		return fs, err
	}
	if !ok {
		fs.Absent = true
		return fs, nil
	}
	sources, _, err := w.Sources(ctx, path, fw, configuration)
	if err != nil {
		return fs, err
	}

	for _, dep := range info.Dependencies {
		fs.Dependencies = append(fs.Dependencies,
			strings.TrimSpace(fmt.Sprintf("%s %s %s", dep.Kind, dep.Name, dep.Version)))
	}
	for _, diag := range info.Diagnostics {
		fs.Diagnostics = append(fs.Diagnostics, fmt.Sprintf("%s %s %s", diag.Severity, diag.Code, diag.Message))
	}
	fs.FileReferences = info.FileReferences
	fs.Sources = sources
	return fs, nil
}

// Watch reports the snapshot of the project at path, then watches the
// workspace it belongs to and reports a new snapshot each time a batch of
// file changes alters it. It returns when ctx is cancelled.
func (w *Workspace) Watch(
	ctx context.Context,
	path string,
	fsWatcher ports.Watcher,
	filter ChangeFilter,
	opts WatchOptions,
	report func(*Snapshot),
) error {
	id, err := domain.NewProjectID(path)
	if err != nil {
		return err
	}
	settings, err := w.settings.Load(id.Dir())
	if err != nil {
		return err
	}
	root := settings.Root

	if err := fsWatcher.Start(ctx, root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch workspace"), "root", root)
	}
	defer func() {
		if err := fsWatcher.Stop(); err != nil {
			w.logger.Warn("failed to stop watcher", "error", err.Error())
		}
	}()

	p := &publisher{workspace: w, path: path, opts: opts, report: report}
	seen, err := p.publish(ctx)
	if err != nil {
		return err
	}
	filter.Record(seen)
	w.logger.Info("watching workspace", "root", root, "project", id.Dir())

	window := opts.Debounce
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}
	debouncer := watcher.NewDebouncer(window, func(paths []string) {
		changed := filter.Changed(paths)
		if len(changed) == 0 {
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()

		for _, dir := range owningProjects(changed, root) {
			if err := w.Refresh(dir); err != nil {
				w.logger.Warn("failed to refresh project", "project", dir, "error", err.Error())
				continue
			}
			w.logger.Info("project invalidated", "project", dir)
		}
		if _, err := p.publishLocked(ctx); err != nil {
			w.logger.Error(err)
		}
	})

	for event := range fsWatcher.Events() {
		debouncer.Add(event.Path)
	}
	debouncer.Flush()
	return nil
}

type publisher struct {
	mu        sync.Mutex
	workspace *Workspace
	path      string
	opts      WatchOptions
	report    func(*Snapshot)
	last      uint64
	published bool
}

func (p *publisher) publish(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publishLocked(ctx)
}

// publishLocked reports the current snapshot unless it hashes like the last
// one. It returns the files the snapshot was built from.
func (p *publisher) publishLocked(ctx context.Context) ([]string, error) {
	snap, err := p.workspace.Snapshot(ctx, p.path, p.opts)
	if err != nil {
		return nil, err
	}
	hash, err := hashstructure.Hash(snap, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to hash snapshot")
	}

	if !p.published || hash != p.last {
		p.last = hash
		p.published = true
		p.report(snap)
	}

	var files []string
	for _, fs := range snap.Frameworks {
		files = append(files, fs.Sources...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// owningProjects maps changed paths to the nearest enclosing directory that
// holds a manifest, stopping at root. Paths outside any project are dropped.
func owningProjects(paths []string, root string) []string {
	var dirs []string
	for _, path := range paths {
		dir := filepath.Dir(path)
		if filepath.Base(path) == domain.ManifestFileName {
			dirs = appendUnique(dirs, dir)
			continue
		}
		for within(dir, root) {
			if hasManifest(dir) {
				dirs = appendUnique(dirs, dir)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	slices.Sort(dirs)
	return dirs
}

func within(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func appendUnique(dirs []string, dir string) []string {
	if slices.Contains(dirs, dir) {
		return dirs
	}
	return append(dirs, dir)
}

func hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, domain.ManifestFileName))
	return err == nil && !info.IsDir()
}
