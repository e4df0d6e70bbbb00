package temporal

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// Graph is the adjacency of one time slice: rows × cols over package indices.
// Rows bound the indices that can have out-edges.
type Graph struct {
	rows, cols int
	g          *simple.DirectedGraph
	self       Set
	edges      int
}

// NewGraph returns an empty rows × cols adjacency.
func NewGraph(rows, cols int) *Graph {
	return &Graph{rows: rows, cols: cols, g: simple.NewDirectedGraph(), self: Set{}}
}

// Dims returns the row and column bounds.
func (g *Graph) Dims() (rows, cols int) { return g.rows, g.cols }

// EdgeCount returns the number of distinct edges, self loops included.
func (g *Graph) EdgeCount() int { return g.edges }

// AddEdge records a from → to edge. Repeated edges are stored once.
func (g *Graph) AddEdge(from, to int) error {
	if from < 0 || from >= g.rows || to < 0 || to >= g.cols {
		return deperrors.New(deperrors.ErrCodeInvalidFormat,
			"edge (%d, %d) outside %dx%d adjacency", from, to, g.rows, g.cols)
	}
	if from == to {
		// simple.DirectedGraph rejects self edges.
		if !g.self.Has(from) {
			g.self.Add(from)
			g.edges++
		}
		return nil
	}
	u, v := int64(from), int64(to)
	if g.g.HasEdgeFromTo(u, v) {
		return nil
	}
	g.g.SetEdge(g.g.NewEdge(simple.Node(u), simple.Node(v)))
	g.edges++
	return nil
}

// HasEdge reports whether the from → to edge exists.
func (g *Graph) HasEdge(from, to int) bool {
	if from == to {
		return g.self.Has(from)
	}
	return g.g.HasEdgeFromTo(int64(from), int64(to))
}

// Successors returns the out-neighbours of i in ascending order. Indices
// outside the row bound have none.
func (g *Graph) Successors(i int) []int {
	if i < 0 || i >= g.rows {
		return nil
	}
	var out []int
	if g.self.Has(i) {
		out = append(out, i)
	}
	if g.g.Node(int64(i)) != nil {
		it := g.g.From(int64(i))
		for it.Next() {
			out = append(out, int(it.Node().ID()))
		}
	}
	sort.Ints(out)
	return out
}

// Edges returns every edge ordered by source, then target.
func (g *Graph) Edges() [][2]int {
	out := make([][2]int, 0, g.edges)
	for i := range g.self {
		out = append(out, [2]int{i, i})
	}
	it := g.g.Edges()
	for it.Next() {
		e := it.Edge()
		out = append(out, [2]int{int(e.From().ID()), int(e.To().ID())})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a][0] != out[b][0] {
			return out[a][0] < out[b][0]
		}
		return out[a][1] < out[b][1]
	})
	return out
}
