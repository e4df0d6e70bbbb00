// Package index buckets a repository's commits by calendar day or month and
// keeps the earliest commit of each bucket. The resulting document drives
// batch snapshot runs.
package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/gitrepo"
)

// Granularity selects the bucket size.
type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
)

// datetimeLayout is the wall-clock timestamp recorded per entry.
const datetimeLayout = "2006-01-02T15:04:05"

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Day, Month:
		return g, nil
	}
	return "", deperrors.New(deperrors.ErrCodeInvalidInput, "granularity must be day or month, got %q", s)
}

// Layout returns the time layout of the bucket label.
func (g Granularity) Layout() string {
	if g == Month {
		return "2006-01"
	}
	return "2006-01-02"
}

// Entry is the commit selected for one period.
type Entry struct {
	Hash     string `json:"hash"`
	Datetime string `json:"datetime"`
	Source   string `json:"source"`
}

// Index maps period labels to their selected commit.
type Index map[string]Entry

// wallClock drops the zone, keeping the author's local date and time.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Build buckets commits by their author's local calendar date and keeps the
// earliest commit of each bucket. Ties keep the commit listed first.
func Build(commits []gitrepo.Commit, g Granularity, source string) Index {
	sorted := make([]gitrepo.Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return wallClock(sorted[i].When).Before(wallClock(sorted[j].When))
	})

	ix := Index{}
	for _, c := range sorted {
		local := wallClock(c.When)
		label := local.Format(g.Layout())
		if _, ok := ix[label]; ok {
			continue
		}
		ix[label] = Entry{Hash: c.Hash, Datetime: local.Format(datetimeLayout), Source: source}
	}
	return ix
}

// Labels returns the period labels in ascending order.
func (ix Index) Labels() []string {
	labels := make([]string, 0, len(ix))
	for l := range ix {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Write encodes the index as indented JSON.
func (ix Index) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ix); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes an index document and validates its labels.
func Read(r io.Reader) (Index, error) {
	var ix Index
	if err := json.NewDecoder(r).Decode(&ix); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "decode commit index")
	}
	for label, e := range ix {
		if err := deperrors.ValidatePeriodLabel(label); err != nil {
			return nil, err
		}
		if e.Hash == "" {
			return nil, deperrors.New(deperrors.ErrCodeInvalidFormat, "period %s has no commit hash", label)
		}
	}
	return ix, nil
}

// ReadFile reads an index document from path.
func ReadFile(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeNotFound, err, "open commit index")
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes the index document to path.
func (ix Index) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeStorage, err, "create %s", path)
	}
	if err := ix.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
