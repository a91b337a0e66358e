package domain

import "encoding/json"

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalJSON renders the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Diagnostic codes emitted by graph resolution.
const (
	CodeUnresolvedDependency = "LOOM1001"
	CodeVersionConflict      = "LOOM1002"
	CodeInvalidDependency    = "LOOM1003"
)

// DiagnosticMessage is a resolution problem attached to the library that caused it.
type DiagnosticMessage struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Severity Severity        `json:"severity"`
	Source   LibraryIdentity `json:"source"`
	Path     string          `json:"path,omitempty"`
}
