// Package pkg provides the libraries behind depchrono, a tool that records
// how a Julia package registry's dependency structure changes over time.
//
// # Overview
//
// A registry is a git repository with one directory per package. Each
// directory holds TOML tables: package metadata, released versions, and
// dependency and compatibility tables keyed by version ranges. depchrono
// replays the repository's history, one commit per day or month, and turns
// every selected commit into a snapshot of who depends on whom.
//
// # Architecture
//
//	git history
//	     ↓
//	[gitrepo] + [index]       (one commit per period)
//	     ↓
//	[registry] + [snapshot]   (extract tables, resolve latest dependencies)
//	     ↓
//	[batch] → [store]         (resumable runs into file, Redis or MongoDB)
//	     ↓
//	[temporal]                (per-period adjacency, closures, union graph)
//	     ↓
//	[server]                  (read-only JSON API)
//
// # Main Packages
//
// [registry] - Format detection, lenient version ordering, range matching
// and dependency resolution for both registry generations and the legacy
// flat layout.
//
// [snapshot] - The immutable per-commit view and the builder that walks a
// checkout. The checkout is always restored to its branch afterwards.
//
// [index] - Buckets commits by calendar day or month, keeping the earliest
// commit of each bucket.
//
// [batch] - Builds one snapshot per period, skipping documents that already
// exist so interrupted runs resume.
//
// [temporal] - The package index, SMAT triplet files, transitive closures
// and the first-appearance clustering of a package's dependency history.
//
// ## Infrastructure
//
// [store] - Named document storage (directory, Redis, MongoDB GridFS).
//
// [config] - Layered configuration (defaults, TOML, environment, flags).
//
// [errors] - Coded errors and input validation.
//
// [observability] - Hooks for build, batch, store and HTTP events.
//
// # Testing
//
//	go test ./...                          # All tests
//	go test -tags integration ./pkg/store  # Redis and MongoDB backends
package pkg
