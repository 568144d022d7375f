// # internal/impact/analyzer.go
// Package impact combines the dependency graph with parsed diff entries to
// produce the blast radius of a change: every transitive dependent, its
// dependency distance, a risk label and, when an enricher is wired in, a
// short justification per module.
package impact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"blastradius/internal/diff"
	"blastradius/internal/enrich"
	"blastradius/internal/graph"
	"blastradius/internal/shared/observability"
	"blastradius/internal/shared/util"
)

var ErrGraphNotBuilt = errors.New("dependency graph not built")

type Options struct {
	// MaxDepth bounds the traversal; <= 0 means exhaust the graph.
	MaxDepth int
	// EnrichmentDepthCutoff limits enrichment to close dependents;
	// <= 0 enriches every affected module.
	EnrichmentDepthCutoff int
	EnrichmentTimeout     time.Duration
	EnrichmentConcurrency int
	EnrichmentRate        float64
	EnrichmentBurst       int
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:              0,
		EnrichmentDepthCutoff: 2,
		EnrichmentTimeout:     10 * time.Second,
		EnrichmentConcurrency: 4,
		EnrichmentRate:        2,
		EnrichmentBurst:       2,
	}
}

type Analyzer struct {
	enricher enrich.Enricher
	limiter  *util.Limiter
	opts     Options
	logger   *slog.Logger
}

func New(enricher enrich.Enricher, opts Options, logger *slog.Logger) *Analyzer {
	if enricher == nil {
		enricher = enrich.NewNull()
	}
	if opts.EnrichmentConcurrency < 1 {
		opts.EnrichmentConcurrency = 1
	}
	if opts.EnrichmentTimeout <= 0 {
		opts.EnrichmentTimeout = DefaultOptions().EnrichmentTimeout
	}
	if opts.EnrichmentRate <= 0 {
		opts.EnrichmentRate = DefaultOptions().EnrichmentRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		enricher: enricher,
		limiter:  util.NewLimiter(opts.EnrichmentRate, opts.EnrichmentBurst),
		opts:     opts,
		logger:   logger,
	}
}

// seedImpact accumulates reachability across seeds for one dependent.
type seedImpact struct {
	depth       int
	nearestSeed string
	seeds       map[string]bool
}

// Analyze maps changed files onto graph modules, walks reverse edges from
// each seed and merges the results. The structural stage is deterministic;
// the enrichment stage annotates it but never removes entries.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph, changed []diff.ChangedFile) (*Result, error) {
	if g == nil {
		observability.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, ErrGraphNotBuilt
	}

	ctx, span := observability.Tracer.Start(ctx, "impact.Analyze")
	defer span.End()
	start := time.Now()

	res := &Result{
		RunID:        uuid.NewString(),
		ChangedFiles: changed,
		Stats:        Stats{Modules: g.ModuleCount(), Edges: g.EdgeCount()},
	}

	seedDiff := make(map[string]diff.ChangedFile)
	for _, cf := range changed {
		id, ok := g.ModuleByPath(cf.Path)
		if !ok {
			res.UnmatchedChangedFiles = appendUnique(res.UnmatchedChangedFiles, cf.Path)
			continue
		}
		if _, dup := seedDiff[id]; !dup {
			res.ChangedModules = append(res.ChangedModules, id)
			seedDiff[id] = cf
		}
	}

	impacts := make(map[string]*seedImpact)
	for _, seed := range res.ChangedModules {
		for _, dep := range g.TransitiveDependentsOf(seed, a.opts.MaxDepth) {
			si, ok := impacts[dep.ID]
			if !ok {
				si = &seedImpact{depth: dep.Depth, nearestSeed: seed, seeds: make(map[string]bool)}
				impacts[dep.ID] = si
			}
			// Min depth wins; equal depths tie-break on seed ID so the
			// enrichment pairing is independent of diff order.
			if dep.Depth < si.depth || (dep.Depth == si.depth && seed < si.nearestSeed) {
				si.depth = dep.Depth
				si.nearestSeed = seed
			}
			si.seeds[seed] = true
		}
	}

	for id, si := range impacts {
		// A changed module reached from another seed is reported as
		// changed, not affected.
		if containsString(res.ChangedModules, id) {
			continue
		}
		r := structuralRisk(si.depth, len(si.seeds))
		res.AffectedModules = append(res.AffectedModules, AffectedModule{
			ID:                id,
			Depth:             si.depth,
			Risk:              r,
			StructuralRisk:    r,
			ContributingSeeds: sortedKeys(si.seeds),
		})
	}

	a.enrichAll(ctx, res, impacts, seedDiff)
	sortAffected(res.AffectedModules)
	res.Cycles = g.DetectCycles()

	res.ElapsedMS = time.Since(start).Milliseconds()
	observability.AnalysesTotal.WithLabelValues("ok").Inc()
	observability.AnalysisDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("analysis complete",
		"run_id", res.RunID,
		"changed", len(res.ChangedModules),
		"affected", len(res.AffectedModules),
		"unmatched", len(res.UnmatchedChangedFiles),
		"partial", res.Partial)
	return res, nil
}

// enrichAll annotates affected modules within the depth cutoff. Per-module
// failures are recorded on the entry; only cancellation of the whole run
// marks the result partial.
func (a *Analyzer) enrichAll(ctx context.Context, res *Result, impacts map[string]*seedImpact, seedDiff map[string]diff.ChangedFile) {
	var cancelled atomic.Bool

	var eg errgroup.Group
	eg.SetLimit(a.opts.EnrichmentConcurrency)

	for i := range res.AffectedModules {
		am := &res.AffectedModules[i]
		if a.opts.EnrichmentDepthCutoff > 0 && am.Depth > a.opts.EnrichmentDepthCutoff {
			continue
		}
		si := impacts[am.ID]

		eg.Go(func() error {
			if ctx.Err() != nil {
				cancelled.Store(true)
				return nil
			}
			if err := a.limiter.Wait(ctx); err != nil {
				cancelled.Store(true)
				return nil
			}

			callCtx, cancel := context.WithTimeout(ctx, a.opts.EnrichmentTimeout)
			defer cancel()

			callStart := time.Now()
			enr, err := a.enricher.Explain(callCtx, enrich.Request{
				ChangedModule:  si.nearestSeed,
				AffectedModule: am.ID,
				Depth:          am.Depth,
				StructuralRisk: am.StructuralRisk.String(),
				DiffContext:    diffContext(seedDiff[si.nearestSeed]),
			})
			observability.EnrichmentDuration.Observe(time.Since(callStart).Seconds())
			if err != nil {
				if ctx.Err() != nil {
					cancelled.Store(true)
					return nil
				}
				observability.EnrichmentCalls.WithLabelValues("error").Inc()
				am.EnrichmentError = err.Error()
				a.logger.Warn("enrichment failed", "module", am.ID, "error", err)
				return nil
			}

			observability.EnrichmentCalls.WithLabelValues("ok").Inc()
			am.Reasoning = &Reasoning{Reason: enr.Reason, PotentialIssue: enr.PotentialIssue}
			if r, ok := ParseRisk(enr.Risk); ok {
				am.Risk = r
			}
			return nil
		})
	}

	_ = eg.Wait()
	if cancelled.Load() {
		res.Partial = true
	}
}

func diffContext(cf diff.ChangedFile) string {
	if cf.Path == "" {
		return ""
	}
	if len(cf.Symbols) == 0 {
		return fmt.Sprintf("%s %s", cf.Kind, cf.Path)
	}
	return fmt.Sprintf("%s %s (touches %s)", cf.Kind, cf.Path, strings.Join(cf.Symbols, ", "))
}

func sortAffected(mods []AffectedModule) {
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].Risk != mods[j].Risk {
			return mods[i].Risk > mods[j].Risk
		}
		if mods[i].Depth != mods[j].Depth {
			return mods[i].Depth < mods[j].Depth
		}
		return mods[i].ID < mods[j].ID
	})
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func containsString(list []string, s string) bool {
	for _, existing := range list {
		if existing == s {
			return true
		}
	}
	return false
}
