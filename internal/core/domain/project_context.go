package domain

import "time"

// InputFile is a file a pipeline stage read, with its last-write time as
// observed before reading. Exists is false when the file was looked for and
// not found.
type InputFile struct {
	Path    string
	ModTime time.Time
	Exists  bool
}

// ProjectContext is the library graph of one project for one framework.
// Libraries are in resolution order and the root project comes first.
type ProjectContext struct {
	Project     *Project
	Framework   Framework
	Libraries   []*LibraryDescription
	Diagnostics []DiagnosticMessage

	// InputFiles lists every file other than the root manifest that the
	// graph was built from. A change to any of them invalidates the context.
	InputFiles []InputFile
}

// Root returns the library describing the project itself.
func (pc *ProjectContext) Root() (*LibraryDescription, bool) {
	for _, lib := range pc.Libraries {
		if lib.Identity.Kind == KindProject && lib.Project != nil && lib.Project.ID == pc.Project.ID {
			return lib, true
		}
	}
	return nil, false
}
