package types

import (
	"errors"
	"fmt"
	"strings"
)

// Issue is a single schema violation.
type Issue struct {
	Path    string // JSON Pointer into the validated value, "" for the root.
	Keyword string // Violated keyword path, e.g. "properties/height/maximum".
	Message string
	Schema  string // Absolute location of the failing schema, when known.
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "/"
	}
	return path + ": " + i.Message
}

// Issues is an ordered collection of violations that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AsIssues extracts Issues from an error chain.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ValidationError is a rejection by schema validation. Kind is one of the
// sentinel errors of this package; errors.Is matches it and AsIssues
// recovers the violations.
type ValidationError struct {
	Kind   error
	Schema string // Logical schema name the value was checked against.
	Issues Issues
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Issues.Error())
}

// Unwrap exposes both the sentinel and the issues.
func (e *ValidationError) Unwrap() []error {
	return []error{e.Kind, e.Issues}
}
