// Package registry extracts package metadata, versions and dependency tables
// from one package directory of a Julia-style registry checkout, and resolves
// which dependencies apply to a given package version.
//
// # Formats
//
// Three on-disk generations are supported, modelled as a closed set of
// [Format] values:
//
//   - [FormatLate]: Package.toml, Versions.toml, Deps.toml, Compat.toml
//   - [FormatEarly]: package.toml, versions.toml, dependencies.toml, compatibility.toml
//   - [FormatLegacy]: the flat METADATA layout (a url file plus versions/<v>/{sha1,requires})
//
// [Detect] classifies a directory of the modern registry (late before early).
// [DetectLegacy] is only used by the separate legacy repository walk; the
// legacy layout is never a fallback of the modern walk.
//
// # Resolution
//
// A dependency table maps range expressions ("0.1-0.6", "2", "1.0.3-1") to
// dependency sets. [ResolveForVersion] merges, in document order, every entry
// whose range [Matches] the target version. [ResolveAsOf] is the historical
// query mode: it pre-merges the entry keyed by the target's bare major number
// and the entry keyed "1" before applying the remaining ranges.
//
// Version ordering and range matching never fail: malformed inputs sort lowest
// and unparseable ranges fall back to literal string equality.
package registry
