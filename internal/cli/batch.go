package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depchrono/pkg/batch"
	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/index"
	"github.com/matzehuels/depchrono/pkg/snapshot"
)

type batchOpts struct {
	source string
}

// batchCommand builds one snapshot per indexed period.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{}
	cmd := &cobra.Command{
		Use:   "batch <index.json>",
		Short: "Build the snapshots of every period in a commit index",
		Long: `Build and store one snapshot per period of a commit index, in ascending
period order. Periods whose document already exists are skipped, so an
interrupted run resumes where it stopped. A failed period is reported and
the run continues.`,
		Example: `  depchrono batch general_index.json
  depchrono batch metadata_index.json --source metadata --store-backend redis`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", "", "repository layout (default: the index's recorded source)")
	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, path string, opts batchOpts) error {
	ctx := cmd.Context()
	ix, err := index.ReadFile(path)
	if err != nil {
		return err
	}
	source, err := batchSource(ix, opts.source)
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

	driver := &batch.Driver{
		Builder:  snapshot.NewBuilder(c.Logger),
		Worktree: repo,
		Store:    st,
		Source:   source,
		Logger:   c.Logger,
	}
	report, runErr := driver.Run(ctx, ix)
	if report != nil {
		printBatchReport(report)
	}
	if runErr != nil {
		return runErr
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d periods failed", len(report.Failed), len(ix))
	}
	return nil
}

// batchSource picks the layout: the flag when given, else the source shared
// by every index entry.
func batchSource(ix index.Index, flag string) (snapshot.Source, error) {
	if flag != "" {
		return parseSource(flag)
	}
	source := ""
	for _, e := range ix {
		if source != "" && e.Source != source {
			return "", deperrors.New(deperrors.ErrCodeInvalidInput, "index mixes sources %q and %q; pass --source", source, e.Source)
		}
		source = e.Source
	}
	if source == "" {
		return snapshot.SourceGeneral, nil
	}
	return parseSource(source)
}

func printBatchReport(r *batch.Report) {
	printInfo("Run %s finished in %s", r.RunID, r.Elapsed.Round(time.Millisecond))
	printCounts(len(r.Completed), "built", len(r.Skipped), "skipped", len(r.Failed), "failed")
	for _, f := range r.Failed {
		printError("%s: %s", f.Label, strings.TrimSpace(deperrors.UserMessage(f.Err)))
	}
}
