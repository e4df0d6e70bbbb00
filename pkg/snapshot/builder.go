package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depchrono/pkg/observability"
	"github.com/matzehuels/depchrono/pkg/registry"
)

// jllDir holds the binary-artifact packages of the general registry, bucketed
// by letter like the root.
const jllDir = "jll"

// Worktree is a checkout the builder can move to a commit and back.
// *gitrepo.Repo implements it.
type Worktree interface {
	Path() string
	Checkout(ctx context.Context, hash string) error
	Restore(ctx context.Context) error
}

// Builder walks a checkout and assembles snapshots.
type Builder struct {
	logger *log.Logger
}

// NewBuilder returns a builder logging to logger (nil means log.Default()).
func NewBuilder(logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{logger: logger}
}

type packageDir struct {
	path string
	jll  bool
}

// Build checks out commit, walks every package directory of the given source
// layout and returns the snapshot. The worktree is restored to its branch
// afterwards whether or not the build succeeded; a failed restore is logged
// and does not fail the build.
func (b *Builder) Build(ctx context.Context, wt Worktree, commit string, source Source) (snap *Snapshot, err error) {
	start := time.Now()
	observability.Snapshot().OnBuildStart(ctx, commit, string(source))
	defer func() {
		if rerr := wt.Restore(context.WithoutCancel(ctx)); rerr != nil {
			b.logger.Warn("failed to restore checkout", "path", wt.Path(), "err", rerr)
		}
		n := 0
		if snap != nil {
			n = snap.Len()
		}
		observability.Snapshot().OnBuildComplete(ctx, commit, n, time.Since(start), err)
	}()

	b.logger.Debug("checking out", "commit", commit, "path", wt.Path())
	if err := wt.Checkout(ctx, commit); err != nil {
		return nil, err
	}

	var dirs []packageDir
	if source == SourceLegacy {
		dirs, err = legacyPackageDirs(wt.Path())
	} else {
		dirs, err = generalPackageDirs(wt.Path())
	}
	if err != nil {
		return nil, err
	}
	b.logger.Debug("found package directories", "count", len(dirs))

	snap = &Snapshot{
		commit:       commit,
		source:       source,
		packages:     make(map[string]PackageRecord, len(dirs)),
		dependencies: make(map[string]registry.DependencySet, len(dirs)),
		formatStats:  initialStats(source),
	}
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.add(ctx, snap, d, source)
	}
	return snap, nil
}

func initialStats(source Source) map[registry.Format]int {
	if source == SourceLegacy {
		return map[registry.Format]int{registry.FormatLegacy: 0, registry.FormatUnknown: 0}
	}
	return map[registry.Format]int{registry.FormatEarly: 0, registry.FormatLate: 0, registry.FormatUnknown: 0}
}

func (b *Builder) add(ctx context.Context, snap *Snapshot, d packageDir, source Source) {
	var format registry.Format
	if source == SourceLegacy {
		format = registry.DetectLegacy(d.path)
	} else {
		format = registry.Detect(d.path)
	}
	snap.formatStats[format]++
	if format == registry.FormatUnknown {
		observability.Snapshot().OnPackageExcluded(ctx, d.path, "unknown format")
		return
	}

	p, err := registry.Extract(d.path, format)
	if errors.Is(err, registry.ErrNoMetadata) {
		b.logger.Debug("excluding package", "dir", d.path, "err", err)
		observability.Snapshot().OnPackageExcluded(ctx, d.path, "no metadata")
		return
	}
	if err != nil {
		b.logger.Warn("excluding package", "dir", d.path, "err", err)
		observability.Snapshot().OnPackageExcluded(ctx, d.path, err.Error())
		return
	}
	for field, ferr := range map[string]error{
		"versions":      p.Errors.Versions,
		"dependencies":  p.Errors.Dependencies,
		"compatibility": p.Errors.Compatibility,
	} {
		if ferr != nil {
			b.logger.Warn("malformed table", "package", p.Metadata.Name, "table", field, "err", ferr)
		}
	}

	name := filepath.Base(d.path)
	snap.packages[name] = PackageRecord{
		Metadata:      *p.Metadata,
		Versions:      orEmpty(p.Versions),
		Compatibility: orEmptyCompat(p.Compatibility),
		Format:        format,
		IsJLL:         d.jll,
	}
	snap.dependencies[name] = p.Resolved
}

func orEmpty(v registry.VersionTable) registry.VersionTable {
	if v == nil {
		return registry.VersionTable{}
	}
	return v
}

func orEmptyCompat(c registry.CompatibilityTable) registry.CompatibilityTable {
	if c == nil {
		return registry.CompatibilityTable{}
	}
	return c
}

// generalPackageDirs lists <root>/<Letter>/<Package> and
// <root>/jll/<Letter>/<Package>.
func generalPackageDirs(root string) ([]packageDir, error) {
	dirs, err := letterBuckets(root, false)
	if err != nil {
		return nil, err
	}
	jll := filepath.Join(root, jllDir)
	if info, err := os.Stat(jll); err == nil && info.IsDir() {
		more, err := letterBuckets(jll, true)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, more...)
	}
	return dirs, nil
}

func letterBuckets(root string, jll bool) ([]packageDir, error) {
	buckets, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []packageDir
	for _, bucket := range buckets {
		if !bucket.IsDir() || !isLetter(bucket.Name()) {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, bucket.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, packageDir{path: filepath.Join(root, bucket.Name(), e.Name()), jll: jll})
			}
		}
	}
	return dirs, nil
}

func isLetter(name string) bool {
	if len(name) != 1 {
		return false
	}
	c := name[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// legacyPackageDirs lists the non-hidden top-level directories of a legacy
// METADATA checkout.
func legacyPackageDirs(root string) ([]packageDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []packageDir
	for _, e := range entries {
		if e.IsDir() && e.Name()[0] != '.' {
			dirs = append(dirs, packageDir{path: filepath.Join(root, e.Name())})
		}
	}
	return dirs, nil
}
