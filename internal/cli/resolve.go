package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/registry"
	"github.com/matzehuels/depchrono/pkg/snapshot"
)

// maxListedVersions bounds the versions listed in an unknown-version error.
const maxListedVersions = 10

type resolveOpts struct {
	latest bool
	commit string
}

// resolution is the JSON output of the resolve command.
type resolution struct {
	Package      string                 `json:"package"`
	Version      string                 `json:"version"`
	Mode         string                 `json:"mode"`
	Dependencies registry.DependencySet `json:"dependencies"`
}

// resolveCommand answers "what did this version depend on".
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{}
	cmd := &cobra.Command{
		Use:   "resolve <package> [version]",
		Short: "Resolve the dependencies of one package version",
		Long: `Resolve the dependency set of a package version from the general registry
checkout. By default the historical rules apply: the entry for the version's
major number and the "1" entry are merged first, then every other matching
range. With --latest the latest version is resolved with the standard rules.`,
		Example: `  depchrono resolve Example 0.5.3
  depchrono resolve Example --latest
  depchrono resolve Example 0.4.1 --commit 3f2a9c1d`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 2 {
				version = args[1]
			}
			return c.runResolve(cmd, args[0], version, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.latest, "latest", false, "resolve the latest version with the standard rules")
	cmd.Flags().StringVar(&opts.commit, "commit", "", "check out this registry commit first")
	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, name, version string, opts resolveOpts) error {
	ctx := cmd.Context()
	if err := deperrors.ValidatePackageName(name); err != nil {
		return err
	}
	if version == "" && !opts.latest {
		return deperrors.New(deperrors.ErrCodeInvalidInput, "a version is required unless --latest is given")
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	if opts.commit != "" {
		repo, err := c.openRepo(snapshot.SourceGeneral)
		if err != nil {
			return err
		}
		if err := repo.Checkout(ctx, opts.commit); err != nil {
			return err
		}
		defer func() {
			if err := repo.Restore(context.WithoutCancel(ctx)); err != nil {
				c.Logger.Warn("failed to restore checkout", "path", repo.Path(), "err", err)
			}
		}()
	}

	dir, err := locatePackage(cfg.Registry, name)
	if err != nil {
		return err
	}
	format := registry.Detect(dir)
	if !format.IsRegistry() {
		return deperrors.New(deperrors.ErrCodeInvalidFormat, "%s has no package metadata file", dir)
	}
	versions, err := registry.ExtractVersions(dir, format)
	if err != nil {
		return err
	}
	table, err := registry.ExtractDependencies(dir, format)
	if err != nil {
		return err
	}

	res := resolution{Package: name}
	if opts.latest {
		res.Mode = "latest"
		res.Dependencies, res.Version = registry.ResolveLatest(table, versions)
	} else {
		if _, ok := versions[version]; !ok {
			return unknownVersion(name, version, versions)
		}
		res.Mode = "historical"
		res.Version = version
		res.Dependencies = registry.ResolveAsOf(table, version)
	}
	c.Logger.Debug("resolved", "package", name, "version", res.Version, "format", format, "dependencies", len(res.Dependencies))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// locatePackage finds a package directory under its letter bucket, then
// under the jll tree.
func locatePackage(root, name string) (string, error) {
	bucket := strings.ToUpper(name[:1])
	candidates := []string{
		filepath.Join(root, bucket, name),
		filepath.Join(root, "jll", bucket, name),
	}
	for _, dir := range candidates {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, nil
		}
	}
	return "", deperrors.New(deperrors.ErrCodePackageNotFound, "package %s not found in %s", name, root)
}

// unknownVersion reports a missing version with the newest available ones.
func unknownVersion(name, version string, versions registry.VersionTable) error {
	available := versions.Versions()
	sort.SliceStable(available, func(i, j int) bool {
		return registry.CompareRegistry(available[i], available[j]) > 0
	})
	more := ""
	if len(available) > maxListedVersions {
		more = ", …"
		available = available[:maxListedVersions]
	}
	return deperrors.New(deperrors.ErrCodeUnknownVersion, "version %s of %s not found; available: %s%s",
		version, name, strings.Join(available, ", "), more)
}
