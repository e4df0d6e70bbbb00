package temporal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	deperrors "github.com/matzehuels/depchrono/pkg/errors"
)

// ReadSMAT parses an adjacency in SMAT triplet form: a header line
// "rows cols nnz" followed by one zero-based "row col value" line per entry.
// Entries with value 0 and lines with fewer than three fields are ignored.
func ReadSMAT(r io.Reader) (*Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "read smat header")
		}
		return nil, deperrors.New(deperrors.ErrCodeInvalidFormat, "empty smat document")
	}
	header, err := parseInts(sc.Text(), 3)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "smat header")
	}
	g := NewGraph(header[0], header[1])

	line := 1
	for sc.Scan() {
		line++
		if len(strings.Fields(sc.Text())) < 3 {
			continue
		}
		t, err := parseInts(sc.Text(), 3)
		if err != nil {
			return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "smat line %d", line)
		}
		if t[2] == 0 {
			continue
		}
		if err := g.AddEdge(t[0], t[1]); err != nil {
			return nil, fmt.Errorf("smat line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidFormat, err, "read smat")
	}
	return g, nil
}

func parseInts(s string, n int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) < n {
		return nil, fmt.Errorf("want %d fields, got %d", n, len(fields))
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("negative value %d", v)
		}
		out[i] = v
	}
	return out, nil
}

// WriteSMAT writes g in SMAT triplet form with unit values.
func WriteSMAT(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	rows, cols := g.Dims()
	fmt.Fprintf(bw, "%d %d %d\n", rows, cols, g.EdgeCount())
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "%d %d 1\n", e[0], e[1])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadSMATFile reads one slice file.
func ReadSMATFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadSMAT(f)
}

// WriteSMATFile writes one slice file.
func WriteSMATFile(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return deperrors.Wrap(deperrors.ErrCodeStorage, err, "create %s", path)
	}
	if err := WriteSMAT(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
