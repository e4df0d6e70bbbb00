package temporal

// Closure returns the indices reachable from start over one or more edges.
// The search is seeded with start's direct successors, so start itself is a
// member only when a cycle leads back to it. A start outside the row bound
// has an empty closure.
func Closure(g *Graph, start int) Set {
	seen := Set{}
	queue := append([]int(nil), g.Successors(start)...)
	for _, v := range queue {
		seen.Add(v)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if !seen.Has(next) {
				seen.Add(next)
				queue = append(queue, next)
			}
		}
	}
	return seen
}
