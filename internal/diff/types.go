// # internal/diff/types.go
package diff

import "fmt"

type ChangeKind string

const (
	KindAdded    ChangeKind = "added"
	KindModified ChangeKind = "modified"
	KindDeleted  ChangeKind = "deleted"
	KindRenamed  ChangeKind = "renamed"
)

// ChangedFile is one file mentioned in a unified diff, in diff order.
type ChangedFile struct {
	Path    string      `json:"path"`
	OldPath string      `json:"old_path,omitempty"` // Set for renames
	Kind    ChangeKind  `json:"kind"`
	Ranges  []LineRange `json:"ranges,omitempty"`
	// Symbols is best-effort: definition names seen in hunk headers or
	// changed lines. Empty means file-level granularity only.
	Symbols []string `json:"symbols,omitempty"`
}

type LineRange struct {
	Start int `json:"start"`
	Lines int `json:"lines"`
}

// ParseError names the section of the diff that could not be parsed. It is
// fatal to the parse call: partial results are never returned.
type ParseError struct {
	Section string
	Line    int
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed diff at %s (line %d): %v", e.Section, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed diff at %s: %v", e.Section, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
