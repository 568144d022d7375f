// # internal/enrich/enrich.go
// Package enrich is the optional reasoning capability consumed by the impact
// analyzer. The analyzer always talks to the Enricher interface; when no
// external service is configured it gets the null implementation, so there is
// no "is enrichment on" branch anywhere in the analysis path.
package enrich

import (
	"context"
	"fmt"
)

type Request struct {
	ChangedModule  string
	AffectedModule string
	Depth          int
	StructuralRisk string // LOW, MEDIUM or HIGH
	DiffContext    string
}

type Enrichment struct {
	Reason         string `json:"reason"`
	PotentialIssue string `json:"potential_issue"`
	Risk           string `json:"risk"`
}

type Enricher interface {
	Explain(ctx context.Context, req Request) (Enrichment, error)
}

// Error is a per-pair enrichment failure. It is always recovered by the
// caller; it exists so the failure can be recorded against the pair.
type Error struct {
	ChangedModule  string
	AffectedModule string
	Err            error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enrich %s -> %s: %v", e.ChangedModule, e.AffectedModule, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Null is the fallback enricher: deterministic text, structural risk echoed
// back unchanged.
type Null struct{}

func NewNull() *Null {
	return &Null{}
}

func (*Null) Explain(_ context.Context, req Request) (Enrichment, error) {
	return Enrichment{
		Reason:         fmt.Sprintf("Module affected by changes to %s", req.ChangedModule),
		PotentialIssue: "Dependency on changed functionality",
		Risk:           req.StructuralRisk,
	}, nil
}
