package memo

import (
	"os"
	"time"
)

// FileDependency fires when the last-write time of a file changes or the file
// disappears. A file that did not exist at capture time always reports changed,
// so a value computed without it is recomputed on every access until it exists.
type FileDependency struct {
	path    string
	modTime time.Time
	existed bool
}

// NewFileDependency captures the current last-write time of path.
func NewFileDependency(path string) *FileDependency {
	dep := &FileDependency{path: path}
	if info, err := os.Stat(path); err == nil {
		dep.modTime = info.ModTime()
		dep.existed = true
	}
	return dep
}

// FileDependencyAt builds a dependency from a last-write time observed
// earlier, typically right before the file was read.
func FileDependencyAt(path string, modTime time.Time) *FileDependency {
	return &FileDependency{path: path, modTime: modTime, existed: true}
}

// Path returns the monitored file.
func (d *FileDependency) Path() string { return d.path }

// HasChanged re-stats the file.
func (d *FileDependency) HasChanged() bool {
	if !d.existed {
		return true
	}
	info, err := os.Stat(d.path)
	if err != nil {
		return true
	}
	return !info.ModTime().Equal(d.modTime)
}

func (d *FileDependency) String() string { return d.path }

// AbsenceDependency fires once a file that was probed and not found appears.
type AbsenceDependency struct {
	path string
}

// NewAbsenceDependency records that path did not exist.
func NewAbsenceDependency(path string) *AbsenceDependency {
	return &AbsenceDependency{path: path}
}

// HasChanged reports whether the file exists now.
func (d *AbsenceDependency) HasChanged() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

func (d *AbsenceDependency) String() string { return "!" + d.path }
