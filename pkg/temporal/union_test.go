package temporal

import (
	"reflect"
	"testing"
)

func TestUnion(t *testing.T) {
	// Slice 1: 0 → 1 → 2. Slice 2: 0 → 3, and an edge 5 → 1 outside the union.
	g1 := graphOf(t, 6, [2]int{0, 1}, [2]int{1, 2})
	g2 := graphOf(t, 6, [2]int{0, 3}, [2]int{5, 1}, [2]int{3, 2})
	slices := []Slice{
		{Label: "2020-01", Graph: g1, Deps: Closure(g1, 0)},
		{Label: "2020-02", Graph: g2, Deps: Closure(g2, 0)},
	}

	u := Union(slices, 0)
	if want := []int{0, 1, 2, 3}; !reflect.DeepEqual(u.Nodes, want) {
		t.Fatalf("Nodes = %v, want %v", u.Nodes, want)
	}
	// dense == original here; 5 → 1 is dropped, 1 → 2 from slice 1 and
	// 3 → 2 from slice 2 are both kept.
	want := [][2]int{{0, 1}, {0, 3}, {1, 2}, {3, 2}}
	if !reflect.DeepEqual(u.Edges, want) {
		t.Errorf("Edges = %v, want %v", u.Edges, want)
	}

	reversed := Union([]Slice{slices[1], slices[0]}, 0)
	if !reflect.DeepEqual(reversed.Nodes, u.Nodes) || !reflect.DeepEqual(reversed.Edges, u.Edges) {
		t.Errorf("Union depends on slice order: %v / %v", reversed.Nodes, reversed.Edges)
	}
}

func TestUnion_DenseRemap(t *testing.T) {
	g := graphOf(t, 10, [2]int{9, 4}, [2]int{4, 7})
	u := Union([]Slice{{Label: "2021-01", Graph: g, Deps: Closure(g, 9)}}, 9)

	if want := []int{4, 7, 9}; !reflect.DeepEqual(u.Nodes, want) {
		t.Fatalf("Nodes = %v, want %v", u.Nodes, want)
	}
	for dense, orig := range u.Nodes {
		back, ok := u.Dense(orig)
		if !ok || back != dense || u.Original(dense) != orig {
			t.Errorf("lookup tables disagree for %d/%d", dense, orig)
		}
	}
	if want := [][2]int{{0, 1}, {2, 0}}; !reflect.DeepEqual(u.Edges, want) {
		t.Errorf("Edges = %v, want %v", u.Edges, want)
	}
	if _, ok := u.Dense(3); ok {
		t.Error("Dense(3) should be absent")
	}
}

func TestCluster(t *testing.T) {
	slices := []Slice{
		{Label: "2020-03", Deps: NewSet(0, 1, 2, 3)},
		{Label: "2020-01", Deps: NewSet(0, 1)},
		{Label: "2020-02", Deps: NewSet(0, 1, 2)},
	}
	got := Cluster([]int{0, 1, 2, 3, 8}, slices)
	if want := []int{0, 0, 1, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("Cluster = %v, want %v", got, want)
	}
}
