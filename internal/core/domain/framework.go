package domain

import (
	"strings"
	"unicode"

	"go.trai.ch/zerr"
)

// Framework is a normalized target framework moniker such as "net8.0" or "netstandard2.0".
type Framework struct {
	moniker InternedString
}

// ParseFramework normalizes a moniker to lower case and rejects empty values
// and characters that would collide with cache token names.
func ParseFramework(s string) (Framework, error) {
	moniker := strings.ToLower(strings.TrimSpace(s))
	if moniker == "" {
		return Framework{}, zerr.With(ErrInvalidFramework, "moniker", s)
	}
	for _, r := range moniker {
		if r == '@' || r == '/' || r == '\\' || unicode.IsSpace(r) {
			return Framework{}, zerr.With(ErrInvalidFramework, "moniker", s)
		}
	}
	return Framework{moniker: NewInternedString(moniker)}, nil
}

// MustParseFramework is ParseFramework for literals known to be valid.
func MustParseFramework(s string) Framework {
	fw, err := ParseFramework(s)
	if err != nil {
		panic(err)
	}
	return fw
}

// String returns the normalized moniker.
func (f Framework) String() string {
	return f.moniker.String()
}

// IsZero reports whether f is the zero Framework.
func (f Framework) IsZero() bool {
	return f.moniker.IsZero()
}

// MarshalText implements encoding.TextMarshaler.
func (f Framework) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseConfiguration validates a build configuration name. Names are case
// sensitive and keep their spelling.
func ParseConfiguration(s string) (InternedString, error) {
	name := strings.TrimSpace(s)
	if name == "" || strings.ContainsAny(name, "@/\\") {
		return InternedString{}, zerr.With(ErrInvalidConfiguration, "configuration", s)
	}
	return NewInternedString(name), nil
}
