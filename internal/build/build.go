// Package build holds build-time information.
package build

// Name is the program name used in version output and as the tracer name.
const Name = "loom"

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// Commit is the source revision, set by linker flags.
var Commit = "none"
