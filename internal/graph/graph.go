// # internal/graph/graph.go
package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"blastradius/internal/scanner"
	"blastradius/internal/shared/observability"
)

// Graph is a snapshot of a codebase's import structure. It is immutable after
// Build returns: rebuilds produce a new instance, so readers of an old graph
// are never affected. That is what makes sharing one graph across concurrent
// analyses safe without locks.
type Graph struct {
	root        string
	fingerprint string

	modules   map[string]scanner.Module
	moduleIDs []string          // sorted
	byPath    map[string]string // root-relative path -> module ID

	forward  map[string][]string // importer -> imported, sorted
	reverse  map[string][]string // imported -> importers, sorted
	external map[string][]string // module -> unresolved import targets, sorted

	edgeCount int
}

// Build assembles a graph from scanner output. A Python import target
// resolves to every module that equals it or is a package prefix of it; a Go
// import names a package directory and resolves to the modules directly
// inside it. Anything else is recorded as external and contributes no edge.
func Build(ctx context.Context, root string, modules []scanner.Module) *Graph {
	_, span := observability.Tracer.Start(ctx, "graph.Build")
	defer span.End()

	g := &Graph{
		root:        root,
		fingerprint: Fingerprint(modules),
		modules:     make(map[string]scanner.Module, len(modules)),
		byPath:      make(map[string]string, len(modules)),
		forward:     make(map[string][]string),
		reverse:     make(map[string][]string),
		external:    make(map[string][]string),
	}

	for _, mod := range modules {
		g.modules[mod.ID] = mod
		g.moduleIDs = append(g.moduleIDs, mod.ID)
		g.byPath[mod.Path] = mod.ID
	}
	sort.Strings(g.moduleIDs)

	forward := make(map[string]map[string]bool)
	reverse := make(map[string]map[string]bool)

	for _, mod := range modules {
		for _, imp := range mod.Imports {
			resolved := g.resolveImport(imp)
			if mod.Language == "go" {
				resolved = g.resolvePackage(imp)
			}

			matched := false
			for _, target := range resolved {
				if target == mod.ID {
					continue
				}
				matched = true
				if forward[mod.ID] == nil {
					forward[mod.ID] = make(map[string]bool)
				}
				if reverse[target] == nil {
					reverse[target] = make(map[string]bool)
				}
				forward[mod.ID][target] = true
				reverse[target][mod.ID] = true
			}
			if !matched {
				g.external[mod.ID] = append(g.external[mod.ID], imp)
			}
		}
	}

	for id, targets := range forward {
		g.forward[id] = sortedKeys(targets)
		g.edgeCount += len(targets)
	}
	for id, sources := range reverse {
		g.reverse[id] = sortedKeys(sources)
	}
	for id := range g.external {
		sort.Strings(g.external[id])
	}

	observability.GraphModules.Set(float64(len(g.modules)))
	observability.GraphEdges.Set(float64(g.edgeCount))

	return g
}

// resolveImport returns every in-graph module the raw import target lands on:
// the exact module plus any package prefix of the target that is itself a
// module (import pkg.util.helpers hits both pkg.util.helpers and pkg).
func (g *Graph) resolveImport(imp string) []string {
	var targets []string
	candidate := imp
	for {
		if _, ok := g.modules[candidate]; ok {
			targets = append(targets, candidate)
		}
		idx := strings.LastIndexByte(candidate, '.')
		if idx < 0 {
			break
		}
		candidate = candidate[:idx]
	}
	return targets
}

// resolvePackage resolves a Go import: the normalized target names a package
// directory, so every module directly inside it matches. Not recursive;
// nested packages are their own import paths.
func (g *Graph) resolvePackage(imp string) []string {
	var targets []string
	prefix := imp + "."
	for _, id := range g.moduleIDs {
		if id == imp {
			targets = append(targets, id)
			continue
		}
		if rest, ok := strings.CutPrefix(id, prefix); ok && !strings.Contains(rest, ".") {
			targets = append(targets, id)
		}
	}
	return targets
}

func (g *Graph) Root() string        { return g.root }
func (g *Graph) Fingerprint() string { return g.fingerprint }
func (g *Graph) ModuleCount() int    { return len(g.modules) }
func (g *Graph) EdgeCount() int      { return g.edgeCount }

// ModuleIDs returns all module identifiers in ascending order.
func (g *Graph) ModuleIDs() []string {
	return append([]string(nil), g.moduleIDs...)
}

func (g *Graph) Module(id string) (scanner.Module, bool) {
	mod, ok := g.modules[id]
	return mod, ok
}

// ModuleByPath maps a root-relative file path to its module ID.
func (g *Graph) ModuleByPath(path string) (string, bool) {
	if id, ok := g.byPath[path]; ok {
		return id, true
	}
	// Diff paths are often repo-relative rather than scan-root-relative; the
	// path-derived ID still matches when the roots coincide module-wise. The
	// extension guard keeps auth.md from landing on module auth.
	if candidate := scanner.ModuleID(path); candidate != "" {
		if mod, ok := g.modules[candidate]; ok && pathExt(mod.Path) == pathExt(path) {
			return candidate, true
		}
	}
	return "", false
}

// ImportsOf returns the modules id imports (forward adjacency).
func (g *Graph) ImportsOf(id string) []string {
	return append([]string(nil), g.forward[id]...)
}

// DependentsOf returns the modules that import id (reverse adjacency).
// Unknown IDs yield an empty slice, never an error.
func (g *Graph) DependentsOf(id string) []string {
	return append([]string(nil), g.reverse[id]...)
}

// ExternalImports returns the import targets of id that resolved to no
// in-graph module.
func (g *Graph) ExternalImports(id string) []string {
	return append([]string(nil), g.external[id]...)
}

// Fingerprint hashes the module set (IDs and content hashes) so that a cache
// can tell whether a scan still matches a built graph.
func Fingerprint(modules []scanner.Module) string {
	sorted := make([]scanner.Module, len(modules))
	copy(sorted, modules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, mod := range sorted {
		h.Write([]byte(mod.ID))
		h.Write([]byte{0})
		h.Write(mod.ContentHash[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func pathExt(p string) string {
	if idx := strings.LastIndexByte(p, '.'); idx >= 0 && idx > strings.LastIndexByte(p, '/') {
		return p[idx:]
	}
	return ""
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
