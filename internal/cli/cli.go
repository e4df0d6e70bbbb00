// Package cli implements the depchrono command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depchrono/pkg/buildinfo"
	"github.com/matzehuels/depchrono/pkg/config"
	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/gitrepo"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "depchrono"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Configuration is loaded before any subcommand runs, so flags of the
// executing command take part in the layering.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "depchrono snapshots package registries and tracks dependency closures over time",
		Long:          `depchrono builds point-in-time dependency snapshots of a Julia package registry from its git history, exports them as per-period adjacency matrices and analyzes how a package's transitive dependencies evolve.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	pf.String("registry", "General", "path to the general registry checkout")
	pf.String("legacy", "METADATA", "path to the legacy metadata checkout")
	pf.String("branch", gitrepo.DefaultBranch, "branch restored after each checkout")
	pf.String("store-backend", store.BackendFile, "snapshot store backend (file, redis, mongo)")
	pf.String("store-dir", "snapshots", "directory of the file store")
	pf.String("matrices", "matrices", "directory of per-period adjacency matrices")
	pf.String("package-index", "combined_package_index.json", "path of the combined package index")

	root.AddCommand(c.indexCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.matricesCommand())
	root.AddCommand(c.temporalCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Resources
// =============================================================================

// loadConfig returns the loaded configuration, loading defaults when a command
// runs outside the root's pre-run hook.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath, nil)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.StoreConfig())
}

// openRepo opens the checkout that holds the given source.
func (c *CLI) openRepo(source snapshot.Source) (*gitrepo.Repo, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	path := cfg.Registry
	if source == snapshot.SourceLegacy {
		path = cfg.Legacy
	}
	return gitrepo.Open(path, cfg.Branch)
}

// parseSource validates a --source flag value.
func parseSource(s string) (snapshot.Source, error) {
	switch src := snapshot.Source(s); src {
	case snapshot.SourceGeneral, snapshot.SourceLegacy:
		return src, nil
	}
	return "", deperrors.New(deperrors.ErrCodeInvalidInput, "source must be %q or %q, got %q",
		snapshot.SourceGeneral, snapshot.SourceLegacy, s)
}
