package domain

// LibraryKind classifies what a library resolved to.
type LibraryKind string

// Library kinds. The empty kind is only valid as a range target and means
// any kind may satisfy the range.
const (
	KindAny        LibraryKind = ""
	KindProject    LibraryKind = "project"
	KindPackage    LibraryKind = "package"
	KindAssembly   LibraryKind = "assembly"
	KindUnresolved LibraryKind = "unresolved"
)

// LibraryIdentity names a library. It is comparable and used as a map key.
type LibraryIdentity struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Kind    LibraryKind `json:"kind"`
}

func (id LibraryIdentity) String() string {
	if id.Version == "" {
		return id.Name
	}
	return id.Name + " " + id.Version
}

// LibraryRange is a declared dependency: a name, an optional minimum version
// and an optional restriction on the kind of library that may satisfy it.
type LibraryRange struct {
	Name       string      `json:"name"`
	MinVersion string      `json:"minVersion,omitempty"`
	Target     LibraryKind `json:"target,omitempty"`
}

// Accepts reports whether a library of kind k may satisfy the range.
func (r LibraryRange) Accepts(k LibraryKind) bool {
	return r.Target == KindAny || r.Target == k
}

// LibraryDescription is one node of a resolved library graph.
type LibraryDescription struct {
	Identity     LibraryIdentity
	Resolved     bool
	Dependencies []LibraryRange
	Framework    Framework

	// Path is the manifest of a project, the directory of a package, or the
	// file of an assembly. Empty for unresolved libraries.
	Path string

	// Project is set for project libraries.
	Project *Project
	// TargetFramework is the section of Project selected for Framework.
	TargetFramework *TargetFrameworkInfo
}

// ProjectDirectory returns the directory of a project library, or "".
func (l *LibraryDescription) ProjectDirectory() string {
	if l.Project == nil {
		return ""
	}
	return l.Project.Directory()
}

// WrapsAssembly reports whether the library is a project standing for a
// prebuilt assembly that no project in the workspace produces.
func (l *LibraryDescription) WrapsAssembly() bool {
	return l.TargetFramework != nil &&
		l.TargetFramework.AssemblyPath != "" &&
		l.TargetFramework.WrappedProject == ""
}
