package registry

// MergeAll merges every mapping entry of the table in document order.
func MergeAll(table DependencyTable) DependencySet {
	out := DependencySet{}
	for _, e := range table {
		if e.IsMapping() {
			out.merge(e.Deps)
		}
	}
	return out
}

// ResolveForVersion merges, in document order, the entries whose range
// matches target. An empty target merges everything.
func ResolveForVersion(table DependencyTable, target string) DependencySet {
	if target == "" {
		return MergeAll(table)
	}
	out := DependencySet{}
	for _, e := range table {
		if e.IsMapping() && Matches(target, e.Range) {
			out.merge(e.Deps)
		}
	}
	return out
}

// ResolveLatest resolves the table for the latest registry version in
// versions. With no versions every entry is merged. The selected version is
// returned alongside, empty when none was available.
func ResolveLatest(table DependencyTable, versions VersionTable) (DependencySet, string) {
	latest, ok := versions.Latest(CompareRegistry)
	if !ok {
		return MergeAll(table), ""
	}
	return ResolveForVersion(table, latest), latest
}

// ResolveAsOf is the historical query mode. The entry keyed by the target's
// bare major number and the entry keyed "1" are merged first, in that order;
// then every other matching range is applied in document order.
func ResolveAsOf(table DependencyTable, target string) DependencySet {
	if target == "" {
		return MergeAll(table)
	}
	out := DependencySet{}
	major := majorKey(target)
	pre := map[string]bool{}
	for _, key := range []string{major, "1"} {
		if key == "" || pre[key] {
			continue
		}
		pre[key] = true
		if e, ok := table.Lookup(key); ok && e.IsMapping() {
			out.merge(e.Deps)
		}
	}
	for _, e := range table {
		if pre[e.Range] || !e.IsMapping() {
			continue
		}
		if Matches(target, e.Range) {
			out.merge(e.Deps)
		}
	}
	return out
}
