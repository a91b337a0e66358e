package domain

import (
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
)

// ManifestFileName is the name of the project manifest inside a project directory.
const ManifestFileName = "project.yaml"

// ProjectID identifies a project by its absolute directory.
type ProjectID struct {
	dir InternedString
}

// NewProjectID builds a ProjectID from a project directory or a manifest path.
func NewProjectID(path string) (ProjectID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ProjectID{}, zerr.With(zerr.Wrap(err, "failed to resolve project path"), "path", path)
	}
	if filepath.Base(abs) == ManifestFileName {
		abs = filepath.Dir(abs)
	}
	return ProjectID{dir: NewInternedString(abs)}, nil
}

// Dir returns the absolute project directory.
func (id ProjectID) Dir() string { return id.dir.String() }

// ManifestPath returns the absolute path of the project manifest.
func (id ProjectID) ManifestPath() string {
	return filepath.Join(id.Dir(), ManifestFileName)
}

// Name returns the default project name, the base name of its directory.
func (id ProjectID) Name() string { return filepath.Base(id.Dir()) }

// String returns the absolute project directory.
func (id ProjectID) String() string { return id.Dir() }

// IsZero reports whether id is the zero ProjectID.
func (id ProjectID) IsZero() bool { return id.dir.IsZero() }

// MarshalText implements encoding.TextMarshaler.
func (id ProjectID) MarshalText() ([]byte, error) {
	return []byte(id.Dir()), nil
}

// CompilerOptions are the compilation settings contributed by a project,
// one of its configurations, or one of its frameworks.
type CompilerOptions struct {
	Defines          []string `json:"defines"`
	Optimize         *bool    `json:"optimize,omitempty"`
	WarningsAsErrors *bool    `json:"warningsAsErrors,omitempty"`
	LanguageVersion  string   `json:"languageVersion,omitempty"`
}

// Merge returns o overlaid with other: defines accumulate without duplicates,
// scalar options set in other win.
func (o CompilerOptions) Merge(other CompilerOptions) CompilerOptions {
	merged := CompilerOptions{
		Defines:          slices.Clone(o.Defines),
		Optimize:         o.Optimize,
		WarningsAsErrors: o.WarningsAsErrors,
		LanguageVersion:  o.LanguageVersion,
	}
	for _, d := range other.Defines {
		if !slices.Contains(merged.Defines, d) {
			merged.Defines = append(merged.Defines, d)
		}
	}
	if other.Optimize != nil {
		merged.Optimize = other.Optimize
	}
	if other.WarningsAsErrors != nil {
		merged.WarningsAsErrors = other.WarningsAsErrors
	}
	if other.LanguageVersion != "" {
		merged.LanguageVersion = other.LanguageVersion
	}
	if merged.Defines == nil {
		merged.Defines = []string{}
	}
	return merged
}

// Configuration is a named build configuration such as Debug or Release.
type Configuration struct {
	Name            string
	CompilerOptions CompilerOptions
}

// TargetFrameworkInfo is the framework-specific section of a project manifest.
type TargetFrameworkInfo struct {
	Framework           Framework
	Dependencies        []LibraryRange
	FrameworkAssemblies []string
	CompilerOptions     CompilerOptions

	// AssemblyPath, relative to the project directory, marks a project that
	// stands for a prebuilt assembly.
	AssemblyPath string
	// WrappedProject, relative to the project directory, names the project
	// that produces AssemblyPath.
	WrappedProject string
}

// Project is a parsed project manifest. It is immutable once produced.
type Project struct {
	ID              ProjectID
	Name            string
	Version         string
	Commands        map[string]string
	Configurations  []Configuration
	CompilerOptions CompilerOptions
	Dependencies    []LibraryRange
	Frameworks      []TargetFrameworkInfo

	// SourceFiles are the absolute paths of files to compile.
	SourceFiles []string
	// SharedFiles are the absolute paths of sources offered to dependents.
	SharedFiles []string
}

// Directory returns the absolute project directory.
func (p *Project) Directory() string { return p.ID.Dir() }

// ManifestPath returns the absolute path of the manifest the project was read from.
func (p *Project) ManifestPath() string { return p.ID.ManifestPath() }

// TargetFramework returns the section declared for fw.
func (p *Project) TargetFramework(fw Framework) (*TargetFrameworkInfo, bool) {
	for i := range p.Frameworks {
		if p.Frameworks[i].Framework == fw {
			return &p.Frameworks[i], true
		}
	}
	return nil, false
}

// FrameworkNames lists the declared frameworks in declaration order.
func (p *Project) FrameworkNames() []Framework {
	names := make([]Framework, 0, len(p.Frameworks))
	for _, tf := range p.Frameworks {
		names = append(names, tf.Framework)
	}
	return names
}

// ConfigurationNames lists the declared configurations in declaration order.
func (p *Project) ConfigurationNames() []string {
	names := make([]string, 0, len(p.Configurations))
	for _, c := range p.Configurations {
		names = append(names, c.Name)
	}
	return names
}

// DependenciesFor returns the project-wide dependency ranges followed by the
// ranges declared for fw.
func (p *Project) DependenciesFor(fw Framework) []LibraryRange {
	deps := slices.Clone(p.Dependencies)
	if tf, ok := p.TargetFramework(fw); ok {
		deps = append(deps, tf.Dependencies...)
	}
	return deps
}

// CompilerOptionsFor merges project, configuration and framework options in that order.
// Unknown configurations contribute nothing.
func (p *Project) CompilerOptionsFor(fw Framework, configuration string) CompilerOptions {
	opts := CompilerOptions{}.Merge(p.CompilerOptions)
	for _, c := range p.Configurations {
		if c.Name == configuration {
			opts = opts.Merge(c.CompilerOptions)
			break
		}
	}
	if tf, ok := p.TargetFramework(fw); ok {
		opts = opts.Merge(tf.CompilerOptions)
	}
	return opts
}

// ProjectInformation is the framework-independent summary of a project.
type ProjectInformation struct {
	Name           string            `json:"name"`
	Directory      string            `json:"directory"`
	Commands       map[string]string `json:"commands"`
	Configurations []string          `json:"configurations"`
	Frameworks     []Framework       `json:"frameworks"`
	SearchPaths    []string          `json:"searchPaths"`
	SettingsPath   string            `json:"settingsPath,omitempty"`
}
