package temporal

import (
	"github.com/matzehuels/depchrono/pkg/snapshot"
)

// MatrixFile returns the slice file name for a period label.
func MatrixFile(label string) string {
	return "adj_" + label + ".smat"
}

// Adjacency renders a snapshot as a square adjacency over the index. Edges
// run from a package to each of its dependencies.
//
// Dependencies are reconciled by package name: each entry of a dependency
// set is matched against the snapshot's package names, then against their
// identifiers, on either side of the entry. This joins modern tables (keyed
// by name) and legacy sets (keyed by synthesized id) in one index space.
// Entries that match no indexed package are dropped.
func Adjacency(ix *PackageIndex, snap *snapshot.Snapshot) *Graph {
	byID := map[string]string{}
	for _, name := range snap.PackageNames() {
		rec, _ := snap.Package(name)
		byID[rec.Metadata.UUID] = name
	}
	resolve := func(k, v string) (string, bool) {
		for _, cand := range []string{k, v} {
			if _, ok := snap.Package(cand); ok {
				return cand, true
			}
		}
		for _, cand := range []string{k, v} {
			if name, ok := byID[cand]; ok {
				return name, true
			}
		}
		return "", false
	}

	n := ix.Len()
	g := NewGraph(n, n)
	for _, name := range snap.PackageNames() {
		from, ok := ix.Lookup(name)
		if !ok {
			continue
		}
		deps, _ := snap.Dependencies(name)
		for k, v := range deps {
			target, ok := resolve(k, v)
			if !ok {
				continue
			}
			if to, ok := ix.Lookup(target); ok {
				// Both indices come from ix, so they are within the n x n bounds.
				g.AddEdge(from, to)
			}
		}
	}
	return g
}
