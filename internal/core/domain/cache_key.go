package domain

// Stage names a step of the resolution pipeline.
type Stage uint8

const (
	StageProject Stage = iota + 1
	StageContext
	StageDependencyInfo
)

func (s Stage) String() string {
	switch s {
	case StageProject:
		return "project"
	case StageContext:
		return "context"
	case StageDependencyInfo:
		return "depinfo"
	default:
		return "unknown"
	}
}

// CacheKey identifies the result of one pipeline stage. Fields that do not
// apply to the stage are left zero, so keys of different stages never collide.
type CacheKey struct {
	Stage         Stage
	Project       ProjectID
	Framework     Framework
	Configuration InternedString
}

// ProjectKey is the key of a parsed manifest.
func ProjectKey(id ProjectID) CacheKey {
	return CacheKey{Stage: StageProject, Project: id}
}

// ContextKey is the key of a framework-specific library graph.
func ContextKey(id ProjectID, fw Framework) CacheKey {
	return CacheKey{Stage: StageContext, Project: id, Framework: fw}
}

// DependencyInfoKey is the key of flattened dependency information.
func DependencyInfoKey(id ProjectID, fw Framework, configuration InternedString) CacheKey {
	return CacheKey{Stage: StageDependencyInfo, Project: id, Framework: fw, Configuration: configuration}
}

// String renders the key as stage@dir[@framework[@configuration]]. The same
// text names the invalidation token a stage triggers when it recomputes.
func (k CacheKey) String() string {
	s := k.Stage.String() + "@" + k.Project.Dir()
	switch k.Stage {
	case StageContext:
		s += "@" + k.Framework.String()
	case StageDependencyInfo:
		s += "@" + k.Framework.String() + "@" + k.Configuration.String()
	}
	return s
}
