// Package temporal computes how a package's transitive dependency set evolves
// over time.
//
// Each time slice is a [Graph]: the directed depends-on adjacency among stable
// package indices, as exported by [Adjacency] and stored in the SMAT triplet
// format. [Closure] computes the packages reachable from a target in one
// slice; [Union] merges the closures of many slices into one graph with a
// dense index space; [Cluster] groups the union's nodes by the slice in which
// they first became a dependency. [Analyzer] runs the whole pipeline over a
// directory of slice files.
//
// Package indices are zero-based in memory. The package index document keeps
// the one-based numbering of the files it is exchanged with.
package temporal
