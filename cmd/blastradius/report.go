// # cmd/blastradius/report.go
package main

import (
	"fmt"
	"strings"

	"blastradius/internal/impact"
)

func formatReport(res *impact.Result) string {
	var b strings.Builder

	b.WriteString("Change Impact Analysis\n")
	b.WriteString("======================\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	b.WriteString(fmt.Sprintf("Graph: %d modules, %d edges (%dms)\n", res.Stats.Modules, res.Stats.Edges, res.ElapsedMS))
	if res.Partial {
		b.WriteString("NOTE: enrichment was interrupted, structural results only\n")
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Changed modules (%d)\n", len(res.ChangedModules)))
	for _, id := range res.ChangedModules {
		b.WriteString(fmt.Sprintf("- %s\n", id))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Affected modules (%d)\n", len(res.AffectedModules)))
	for _, am := range res.AffectedModules {
		b.WriteString(fmt.Sprintf("- [%s] %s (depth %d, via %s)\n",
			am.Risk, am.ID, am.Depth, strings.Join(am.ContributingSeeds, ", ")))
		if am.Reasoning != nil {
			b.WriteString(fmt.Sprintf("    reason: %s\n", am.Reasoning.Reason))
			b.WriteString(fmt.Sprintf("    potential issue: %s\n", am.Reasoning.PotentialIssue))
		}
		if am.EnrichmentError != "" {
			b.WriteString(fmt.Sprintf("    enrichment failed: %s\n", am.EnrichmentError))
		}
	}

	if len(res.UnmatchedChangedFiles) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Unmatched changed files (%d)\n", len(res.UnmatchedChangedFiles)))
		for _, path := range res.UnmatchedChangedFiles {
			b.WriteString(fmt.Sprintf("- %s\n", path))
		}
	}

	if len(res.Cycles) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Import cycles (%d)\n", len(res.Cycles)))
		for _, cycle := range res.Cycles {
			b.WriteString(fmt.Sprintf("- %s\n", strings.Join(cycle, " -> ")))
		}
	}

	return b.String()
}
