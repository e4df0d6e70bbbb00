package temporal

import "sort"

// Slice is one time slice of an analysis: its adjacency and the dependency
// set computed for the target package.
type Slice struct {
	Label string
	Graph *Graph
	Deps  Set
}

// UnionGraph merges slices into one graph over a dense index space.
type UnionGraph struct {
	// Nodes maps dense indices to original package indices, ascending.
	Nodes []int
	// Edges holds dense (from, to) pairs ordered by source, then target.
	Edges [][2]int

	dense map[int]int
}

// Dense returns the dense index of an original package index.
func (u *UnionGraph) Dense(orig int) (int, bool) {
	i, ok := u.dense[orig]
	return i, ok
}

// Original returns the original package index of a dense index.
func (u *UnionGraph) Original(dense int) int {
	return u.Nodes[dense]
}

// Union builds the union graph of slices. Its nodes are the union of every
// slice's dependency set plus extra; an edge exists when any slice's full
// adjacency has it between two union nodes. The result does not depend on
// the order of slices.
func Union(slices []Slice, extra ...int) *UnionGraph {
	nodes := NewSet(extra...)
	for _, s := range slices {
		for i := range s.Deps {
			nodes.Add(i)
		}
	}
	u := &UnionGraph{Nodes: nodes.Sorted(), dense: make(map[int]int, len(nodes))}
	for i, orig := range u.Nodes {
		u.dense[orig] = i
	}

	seen := map[[2]int]bool{}
	for _, s := range slices {
		for i, orig := range u.Nodes {
			for _, next := range s.Graph.Successors(orig) {
				j, ok := u.dense[next]
				if !ok || seen[[2]int{i, j}] {
					continue
				}
				seen[[2]int{i, j}] = true
				u.Edges = append(u.Edges, [2]int{i, j})
			}
		}
	}
	sort.Slice(u.Edges, func(a, b int) bool {
		if u.Edges[a][0] != u.Edges[b][0] {
			return u.Edges[a][0] < u.Edges[b][0]
		}
		return u.Edges[a][1] < u.Edges[b][1]
	})
	return u
}

// Cluster assigns each node the ordinal of the chronologically first slice
// whose dependency set contains it. Slices are ordered by label; nodes found
// in no slice get cluster 0.
func Cluster(nodes []int, slices []Slice) []int {
	ordered := append([]Slice(nil), slices...)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].Label < ordered[b].Label })

	out := make([]int, len(nodes))
	for n, orig := range nodes {
		for i, s := range ordered {
			if s.Deps.Has(orig) {
				out[n] = i
				break
			}
		}
	}
	return out
}
