package temporal

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/charmbracelet/log"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

var matrixFilePattern = regexp.MustCompile(`^adj_(\d{4}-\d{2}(?:-\d{2})?)\.smat$`)

// Options tunes one analysis.
type Options struct {
	// From is the first period label to include. Empty means the period in
	// which the package first appeared.
	From string
	// Exclude lists packages removed from every slice's dependency set.
	Exclude []string
	// ExcludeSelf leaves the target package out of the slice sets.
	ExcludeSelf bool
}

// SliceResult summarizes one time slice.
type SliceResult struct {
	Label        string   `json:"label"`
	Dependencies []string `json:"dependencies"`
}

// Result is the outcome of an analysis.
type Result struct {
	Package      string        `json:"package"`
	PackageIndex int           `json:"package_index"`
	From         string        `json:"from"`
	Slices       []SliceResult `json:"slices"`
	// Nodes are the union node names, ordered by original package index.
	Nodes []string `json:"nodes"`
	// NodeIndices are the original zero-based package indices of Nodes.
	NodeIndices []int    `json:"node_indices"`
	Edges       [][2]int `json:"edges"`
	Clusters    []int    `json:"clusters"`
	// ClusterLabels maps a cluster id to the period label it stands for.
	ClusterLabels []string `json:"cluster_labels"`
}

// Analyzer runs temporal analyses over a directory of slice files.
type Analyzer struct {
	dir    string
	index  *PackageIndex
	logger *log.Logger
}

// NewAnalyzer creates an analyzer reading adj_<label>.smat files from dir.
func NewAnalyzer(dir string, index *PackageIndex, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{dir: dir, index: index, logger: logger}
}

// Labels returns the period labels of the available slice files, ascending.
func (a *Analyzer) Labels() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeNotFound, err, "read matrices directory")
	}
	var labels []string
	for _, e := range entries {
		if m := matrixFilePattern.FindStringSubmatch(e.Name()); m != nil && !e.IsDir() {
			labels = append(labels, m[1])
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// atOrAfter compares period labels of possibly different precision at the
// coarser of the two.
func atOrAfter(label, from string) bool {
	n := min(len(label), len(from))
	return label[:n] >= from[:n]
}

// Analyze computes the per-slice dependency sets of pkg from opts.From
// onwards, their union graph and the first-appearance clustering.
func (a *Analyzer) Analyze(ctx context.Context, pkg string, opts Options) (*Result, error) {
	target, err := a.index.require(pkg)
	if err != nil {
		return nil, err
	}
	from := opts.From
	if from == "" {
		from, _ = a.index.FirstSeen(pkg)
	}

	exclude := Set{}
	for _, name := range opts.Exclude {
		i, ok := a.index.Lookup(name)
		if !ok {
			a.logger.Warn("ignoring unknown excluded package", "package", name)
			continue
		}
		exclude.Add(i)
	}

	labels, err := a.Labels()
	if err != nil {
		return nil, err
	}
	var slices []Slice
	for _, label := range labels {
		if !atOrAfter(label, from) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := ReadSMATFile(filepath.Join(a.dir, MatrixFile(label)))
		if err != nil {
			return nil, err
		}
		deps := Closure(g, target).Without(exclude)
		if !opts.ExcludeSelf {
			deps.Add(target)
		}
		a.logger.Debug("slice", "period", label, "dependencies", len(deps), "edges", g.EdgeCount())
		slices = append(slices, Slice{Label: label, Graph: g, Deps: deps})
	}
	if len(slices) == 0 {
		return nil, deperrors.New(deperrors.ErrCodeNotFound, "no adjacency matrices at or after %s in %s", from, a.dir)
	}

	var extra []int
	if !opts.ExcludeSelf {
		extra = append(extra, target)
	}
	u := Union(slices, extra...)

	res := &Result{
		Package:      pkg,
		PackageIndex: target,
		From:         from,
		NodeIndices:  u.Nodes,
		Edges:        u.Edges,
		Clusters:     Cluster(u.Nodes, slices),
	}
	for _, s := range slices {
		sr := SliceResult{Label: s.Label, Dependencies: []string{}}
		for _, i := range s.Deps.Sorted() {
			sr.Dependencies = append(sr.Dependencies, a.name(i))
		}
		res.Slices = append(res.Slices, sr)
		res.ClusterLabels = append(res.ClusterLabels, s.Label)
	}
	for _, i := range u.Nodes {
		res.Nodes = append(res.Nodes, a.name(i))
	}
	if res.Edges == nil {
		res.Edges = [][2]int{}
	}
	return res, nil
}

func (a *Analyzer) name(i int) string {
	if n, ok := a.index.Name(i); ok {
		return n
	}
	return "Unknown"
}
