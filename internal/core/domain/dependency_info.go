package domain

// DependencyItem is one declared dependency of a library, annotated with the
// version of the library that satisfied it.
type DependencyItem struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// DependencyDescription is the external view of one resolved library.
type DependencyDescription struct {
	Name         string              `json:"name"`
	DisplayName  string              `json:"displayName"`
	Version      string              `json:"version,omitempty"`
	Kind         LibraryKind         `json:"kind"`
	Path         string              `json:"path,omitempty"`
	Resolved     bool                `json:"resolved"`
	Dependencies []DependencyItem    `json:"dependencies"`
	Errors       []DiagnosticMessage `json:"errors"`
	Warnings     []DiagnosticMessage `json:"warnings"`
}

// ProjectReferenceInfo describes a project-to-project reference.
type ProjectReferenceInfo struct {
	Name               string    `json:"name"`
	Framework          Framework `json:"framework"`
	Path               string    `json:"path"`
	WrappedProjectPath string    `json:"wrappedProjectPath,omitempty"`
}

// Asset is a file contributed by a library export.
type Asset struct {
	Name         string `json:"name"`
	ResolvedPath string `json:"resolvedPath"`
}

// LibraryExport is what one library contributes to compilation.
type LibraryExport struct {
	Library               LibraryIdentity
	CompilationAssemblies []Asset
	SourceReferences      []string
}

// DependencyInfo is the flattened dependency view of a project for one
// framework and configuration. Slices are never nil.
type DependencyInfo struct {
	Diagnostics         []DiagnosticMessage     `json:"diagnostics"`
	Dependencies        []DependencyDescription `json:"dependencies"`
	FileReferences      []string                `json:"fileReferences"`
	ProjectReferences   []ProjectReferenceInfo  `json:"projectReferences"`
	ExportedSourceFiles []string                `json:"exportedSourceFiles"`
}
