package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depchrono/pkg/index"
)

type indexOpts struct {
	source      string
	granularity string
	output      string
}

// indexCommand buckets a registry's commit history into a period index.
func (c *CLI) indexCommand() *cobra.Command {
	opts := indexOpts{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Select one commit per day or month of registry history",
		Long: `Walk the history of the registry branch and keep the earliest commit of
each calendar day or month. The resulting index drives the batch command.`,
		Example: `  depchrono index --granularity month -o general_index.json
  depchrono index --source metadata --legacy ./METADATA.jl -o metadata_index.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runIndex(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", "general", "repository to index (general, metadata)")
	cmd.Flags().StringVarP(&opts.granularity, "granularity", "g", string(index.Month), "bucket size (day, month)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "commit_index.json", "index file to write")
	return cmd
}

func (c *CLI) runIndex(cmd *cobra.Command, opts indexOpts) error {
	source, err := parseSource(opts.source)
	if err != nil {
		return err
	}
	g, err := index.ParseGranularity(opts.granularity)
	if err != nil {
		return err
	}
	repo, err := c.openRepo(source)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	commits, err := repo.Log(cmd.Context())
	if err != nil {
		return err
	}
	ix := index.Build(commits, g, string(source))
	if err := ix.WriteFile(opts.output); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Indexed %d commits", len(commits)))

	labels := ix.Labels()
	printSuccess("Selected %d periods", len(labels))
	if len(labels) > 0 {
		printDetail("%s … %s", labels[0], labels[len(labels)-1])
	}
	printFile(opts.output)
	printNextStep("Build snapshots", "depchrono batch "+opts.output)
	return nil
}
