package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depchrono/pkg/batch"
	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/index"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
	"github.com/matzehuels/depchrono/pkg/temporal"
)

// matricesCommand exports stored snapshots as per-period adjacency files.
func (c *CLI) matricesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "matrices <index.json>",
		Short: "Export stored snapshots as adjacency matrices",
		Long: `Assign every package seen across the index's snapshot documents a stable
index, then write one adj_<period>.smat triplet file per period and the
combined package index. Dependencies are matched to packages by name.`,
		Example: `  depchrono matrices general_index.json --matrices ./matrices`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMatrices(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runMatrices(ctx context.Context, path string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ix, err := index.ReadFile(path)
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	// Documents are read twice so only one snapshot is held at a time.
	load := func(label string) (*snapshot.Snapshot, error) {
		name := batch.DocumentName(snapshot.Source(ix[label].Source), label)
		var snap snapshot.Snapshot
		if err := store.GetJSON(ctx, st, name, &snap); err != nil {
			return nil, err
		}
		return &snap, nil
	}

	prog := newProgress(c.Logger)
	pkgs := temporal.NewPackageIndex()
	var labels, missing []string
	for _, label := range ix.Labels() {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := load(label)
		if errors.Is(err, store.ErrNotFound) {
			c.Logger.Debug("no snapshot for period", "period", label)
			missing = append(missing, label)
			continue
		}
		if err != nil {
			return err
		}
		pkgs.AddSnapshot(label, snap)
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return deperrors.New(deperrors.ErrCodeNotFound, "no stored snapshots for the periods of %s", path)
	}
	prog.done(fmt.Sprintf("Indexed %d packages", pkgs.Len()), "periods", len(labels))

	if err := os.MkdirAll(cfg.Matrices, 0o755); err != nil {
		return deperrors.Wrap(deperrors.ErrCodeStorage, err, "create %s", cfg.Matrices)
	}
	edges := 0
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := load(label)
		if err != nil {
			return err
		}
		g := temporal.Adjacency(pkgs, snap)
		if err := temporal.WriteSMATFile(filepath.Join(cfg.Matrices, temporal.MatrixFile(label)), g); err != nil {
			return err
		}
		edges += g.EdgeCount()
		c.Logger.Debug("wrote matrix", "period", label, "edges", g.EdgeCount())
	}
	if err := pkgs.SaveFile(cfg.PackageIndex); err != nil {
		return err
	}
	prog.done("Exported matrices")

	printSuccess("Exported %d periods", len(labels))
	printCounts(pkgs.Len(), "packages", edges, "edges")
	if len(missing) > 0 {
		printWarning("%d periods have no stored snapshot", len(missing))
	}
	printFile(cfg.Matrices)
	printFile(cfg.PackageIndex)
	return nil
}
