package temporal

import "sort"

// Set is a set of package indices.
type Set map[int]struct{}

// NewSet returns a set holding the given indices.
func NewSet(indices ...int) Set {
	s := make(Set, len(indices))
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

func (s Set) Add(i int) { s[i] = struct{}{} }

func (s Set) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Without returns a copy of s minus the members of o.
func (s Set) Without(o Set) Set {
	out := make(Set, len(s))
	for i := range s {
		if !o.Has(i) {
			out.Add(i)
		}
	}
	return out
}
