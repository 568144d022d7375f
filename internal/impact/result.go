// # internal/impact/result.go
package impact

import "blastradius/internal/diff"

// Reasoning is the enricher's justification for one affected module. Absent
// when enrichment was skipped (depth beyond the cutoff) or failed.
type Reasoning struct {
	Reason         string `json:"reason"`
	PotentialIssue string `json:"potential_issue"`
}

type AffectedModule struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
	// Risk is the effective label: the enricher may override the
	// structural estimate, which stays visible in StructuralRisk.
	Risk              Risk       `json:"risk"`
	StructuralRisk    Risk       `json:"structural_risk"`
	ContributingSeeds []string   `json:"contributing_seeds"`
	Reasoning         *Reasoning `json:"reasoning,omitempty"`
	EnrichmentError   string     `json:"enrichment_error,omitempty"`
}

type Stats struct {
	Modules int `json:"modules"`
	Edges   int `json:"edges"`
}

type Result struct {
	RunID          string             `json:"run_id"`
	ChangedFiles   []diff.ChangedFile `json:"changed_files"`
	ChangedModules []string           `json:"changed_modules"`
	// AffectedModules is sorted by risk descending, then depth
	// ascending, then module ID.
	AffectedModules       []AffectedModule `json:"affected_modules"`
	UnmatchedChangedFiles []string         `json:"unmatched_changed_files,omitempty"`
	// Partial is set when cancellation cut the enrichment stage short.
	// Individual enrichment failures do not set it.
	Partial   bool       `json:"partial"`
	Cycles    [][]string `json:"cycles,omitempty"`
	Stats     Stats      `json:"stats"`
	ElapsedMS int64      `json:"elapsed_ms"`
}
