// Package batch builds one snapshot per period of a commit index, skipping
// periods whose document already exists so interrupted runs can resume.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/depchrono/pkg/index"
	"github.com/matzehuels/depchrono/pkg/observability"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
)

// DocumentName returns the stored name of the snapshot for a period label.
func DocumentName(source snapshot.Source, label string) string {
	if source == snapshot.SourceLegacy {
		return fmt.Sprintf("metadata_dependencies_%s.json", label)
	}
	return fmt.Sprintf("dependencies_%s.json", label)
}

// CommitDocumentName returns the default name of a single-commit snapshot,
// keyed by the abbreviated hash.
func CommitDocumentName(source snapshot.Source, hash string) string {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return DocumentName(source, hash)
}

// Failure records a period whose build or write failed.
type Failure struct {
	Label string
	Err   error
}

// Report summarizes a batch run.
type Report struct {
	RunID     string
	Completed []string
	Skipped   []string
	Failed    []Failure
	Elapsed   time.Duration
}

// Driver runs batch builds against one worktree and store.
type Driver struct {
	Builder  *snapshot.Builder
	Worktree snapshot.Worktree
	Store    store.Store
	Source   snapshot.Source
	Logger   *log.Logger
}

// Run processes the index periods in ascending label order. A period is
// skipped when its document exists; otherwise its snapshot is built and
// written, and only a successful build is written. Failures are recorded and
// the run continues. Cancellation stops the run between periods and returns
// the partial report with the context error.
func (d *Driver) Run(ctx context.Context, ix index.Index) (*Report, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	builder := d.Builder
	if builder == nil {
		builder = snapshot.NewBuilder(logger)
	}
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger = logger.With("run", report.RunID[:8])

	labels := ix.Labels()
	for i, label := range labels {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}
		name := DocumentName(d.Source, label)
		exists, err := d.Store.Exists(ctx, name)
		if err != nil {
			d.fail(ctx, logger, report, label, err)
			continue
		}
		if exists {
			logger.Debug("skipping existing snapshot", "period", label, "document", name)
			report.Skipped = append(report.Skipped, label)
			observability.Batch().OnPeriodSkipped(ctx, label)
			continue
		}

		periodStart := time.Now()
		entry := ix[label]
		logger.Info("building snapshot", "period", label, "commit", entry.Hash, "progress", fmt.Sprintf("%d/%d", i+1, len(labels)))
		snap, err := builder.Build(ctx, d.Worktree, entry.Hash, d.Source)
		if err == nil {
			err = store.PutJSON(ctx, d.Store, name, snap)
		}
		if err != nil {
			d.fail(ctx, logger, report, label, err)
			continue
		}
		report.Completed = append(report.Completed, label)
		observability.Batch().OnPeriodComplete(ctx, label, time.Since(periodStart))
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func (d *Driver) fail(ctx context.Context, logger *log.Logger, report *Report, label string, err error) {
	logger.Error("period failed", "period", label, "err", err)
	report.Failed = append(report.Failed, Failure{Label: label, Err: err})
	observability.Batch().OnPeriodFailed(ctx, label, err)
}
