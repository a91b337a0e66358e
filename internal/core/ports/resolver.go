package ports

// InputResolver expands file patterns.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs returns the sorted absolute paths of files under root that
	// match any include pattern and no exclude pattern. Patterns are slash
	// separated and relative to root; "**" matches any number of directories.
	ResolveInputs(root string, include, exclude []string) ([]string, error)
}
