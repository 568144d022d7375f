// # internal/scanner/errors.go
package scanner

import (
	"errors"
	"fmt"
)

var (
	ErrRootNotFound  = errors.New("scan root not found")
	ErrNoSourceFiles = errors.New("no recognizable source files")
)

// ScanError is fatal to a graph build: the root is unusable.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
