package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depchrono/pkg/batch"
	"github.com/matzehuels/depchrono/pkg/registry"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
)

type snapshotOpts struct {
	source string
	name   string
}

// snapshotCommand builds the snapshot of a single commit.
func (c *CLI) snapshotCommand() *cobra.Command {
	opts := snapshotOpts{}
	cmd := &cobra.Command{
		Use:   "snapshot <commit>",
		Short: "Build the dependency snapshot of one registry commit",
		Long: `Check out the commit, extract every package's metadata, versions,
compatibility and the dependencies of its latest version, and store the
snapshot document. The checkout is restored to the configured branch
afterwards.`,
		Example: `  depchrono snapshot 3f2a9c1d
  depchrono snapshot 3f2a9c1d --source metadata --name metadata_dependencies_2014-03.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshot(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", "general", "repository layout (general, metadata)")
	cmd.Flags().StringVar(&opts.name, "name", "", "document name (default dependencies_<hash[:8]>.json)")
	return cmd
}

func (c *CLI) runSnapshot(cmd *cobra.Command, commit string, opts snapshotOpts) error {
	ctx := cmd.Context()
	source, err := parseSource(opts.source)
	if err != nil {
		return err
	}
	repo, err := c.openRepo(source)
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	name := opts.name
	if name == "" {
		name = batch.CommitDocumentName(source, commit)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Building snapshot of "+commit)
	spinner.Start()
	snap, err := snapshot.NewBuilder(c.Logger).Build(ctx, repo, commit, source)
	if err != nil {
		spinner.StopWithError("Snapshot of %s failed", commit)
		return err
	}
	spinner.Stop()
	if err := store.PutJSON(ctx, st, name, snap); err != nil {
		return err
	}
	prog.done("Built snapshot", "packages", snap.Len())

	printSuccess("Snapshot %s", snap.Commit())
	printSnapshotStats(snap)
	printFile(name)
	return nil
}

func printSnapshotStats(snap *snapshot.Snapshot) {
	stats := snap.FormatStats()
	pairs := []any{snap.Len(), "packages"}
	for _, f := range []registry.Format{registry.FormatLate, registry.FormatEarly, registry.FormatLegacy, registry.FormatUnknown} {
		if n, ok := stats[f]; ok {
			pairs = append(pairs, n, string(f))
		}
	}
	if n := snap.JLLCount(); n > 0 {
		pairs = append(pairs, n, "jll")
	}
	printCounts(pairs...)
}
