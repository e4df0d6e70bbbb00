package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/temporal"
)

type temporalOpts struct {
	from        string
	exclude     []string
	excludeSelf bool
	output      string
}

// temporalCommand analyzes how a package's dependency closure evolves.
func (c *CLI) temporalCommand() *cobra.Command {
	opts := temporalOpts{}
	cmd := &cobra.Command{
		Use:   "temporal <package>",
		Short: "Track a package's transitive dependencies across periods",
		Long: `Compute the transitive dependency set of a package in every exported period
from --from onwards (default: the period the package first appeared), join
the slices into one union graph and label every node with the first period
that contains it. The result is written as JSON.`,
		Example: `  depchrono temporal Plots
  depchrono temporal Plots --from 2019-01 --exclude Compat,LinearAlgebra -o plots.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTemporal(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "first period to include (YYYY-MM)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "packages removed from every slice")
	cmd.Flags().BoolVar(&opts.excludeSelf, "exclude-self", false, "leave the package itself out of the slices")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "result file (default stdout)")
	return cmd
}

func (c *CLI) runTemporal(cmd *cobra.Command, pkg string, opts temporalOpts) error {
	if opts.from != "" {
		if err := deperrors.ValidatePeriodLabel(opts.from); err != nil {
			return err
		}
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ix, err := temporal.LoadPackageIndex(cfg.PackageIndex)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	analyzer := temporal.NewAnalyzer(cfg.Matrices, ix, c.Logger)
	res, err := analyzer.Analyze(cmd.Context(), pkg, temporal.Options{
		From:        opts.from,
		Exclude:     opts.exclude,
		ExcludeSelf: opts.excludeSelf,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %d periods", len(res.Slices)), "nodes", len(res.Nodes), "edges", len(res.Edges))

	if opts.output == "" {
		return writeResult(cmd.OutOrStdout(), res)
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeStorage, err, "create %s", opts.output)
	}
	if err := writeResult(f, res); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	printSuccess("%s since %s", res.Package, res.From)
	printKeyValue("periods", fmt.Sprint(len(res.Slices)))
	printKeyValue("dependencies", fmt.Sprint(len(res.Nodes)))
	printKeyValue("edges", fmt.Sprint(len(res.Edges)))
	printFile(opts.output)
	return nil
}

func writeResult(w io.Writer, res *temporal.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
