package registry

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

var (
	boundPattern   = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)
	versionPrefix  = regexp.MustCompile(`^v?(\d+(\.\d+){0,2})`)
	numericVersion = regexp.MustCompile(`^\d+(\.\d+)*$`)
)

// bound is a range endpoint of one to three numeric components.
type bound struct {
	parts []int64
}

func parseBound(s string) (bound, bool) {
	s = strings.TrimSpace(s)
	if !boundPattern.MatchString(s) {
		return bound{}, false
	}
	var b bound
	for _, p := range strings.Split(s, ".") {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return bound{}, false
		}
		b.parts = append(b.parts, n)
	}
	return b, true
}

// full reports whether all three components were written out.
func (b bound) full() bool { return len(b.parts) == 3 }

// version returns the bound zero-padded to three components.
func (b bound) version() *semver.Version {
	v := [3]int64{}
	copy(v[:], b.parts)
	return mustVersion(strconv.FormatInt(v[0], 10) + "." +
		strconv.FormatInt(v[1], 10) + "." + strconv.FormatInt(v[2], 10))
}

// comparePrefix compares v with b using only as many components as b has.
func (b bound) comparePrefix(v *semver.Version) int {
	vp := [3]int64{v.Major(), v.Minor(), v.Patch()}
	for i, p := range b.parts {
		switch {
		case vp[i] < p:
			return -1
		case vp[i] > p:
			return 1
		}
	}
	return 0
}

// parseMatchVersion parses the version being tested. A strict parse wins;
// otherwise a leading numeric prefix is accepted.
func parseMatchVersion(s string) (*semver.Version, bool) {
	s = strings.TrimSpace(s)
	if v, err := semver.NewVersion(s); err == nil {
		return v, true
	}
	m := versionPrefix.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	b, ok := parseBound(m[1])
	if !ok {
		return nil, false
	}
	return b.version(), true
}

// Matches reports whether version falls inside the range expression used as a
// dependency-table key.
//
// A hyphenated expression "lo-hi" is inclusive on both ends. The lower bound
// is zero-padded; an upper bound written with fewer than three components is
// compared at its own precision, so "0-2" admits every 2.x release and
// "0.22-0" admits 0.22.6.
//
// A single token with all three components must equal the version. A shorter
// token with major 0 names a pre-1.0 series ("0" matches 0.22.6, "0.3"
// matches 0.3.9). Any other shorter token is zero-padded and compared for
// equality ("1" is 1.0.0).
//
// If either side fails to parse, the result is literal string equality.
func Matches(version, rangeExpr string) bool {
	v, ok := parseMatchVersion(version)
	if !ok {
		return version == rangeExpr
	}
	if lo, hi, isRange := strings.Cut(rangeExpr, "-"); isRange {
		lower, okLo := parseBound(lo)
		upper, okHi := parseBound(hi)
		if !okLo || !okHi {
			return version == rangeExpr
		}
		if v.Compare(lower.version()) < 0 {
			return false
		}
		if upper.full() {
			return v.Compare(upper.version()) <= 0
		}
		return upper.comparePrefix(v) <= 0
	}
	tok, ok := parseBound(rangeExpr)
	if !ok {
		return version == rangeExpr
	}
	if !tok.full() && tok.parts[0] == 0 {
		return tok.comparePrefix(v) == 0
	}
	return v.Compare(tok.version()) == 0
}

// majorKey returns the bare major component of a version, as used by the
// historical query mode to locate a major-keyed table entry.
func majorKey(version string) string {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	if !numericVersion.MatchString(major) {
		return ""
	}
	return major
}
