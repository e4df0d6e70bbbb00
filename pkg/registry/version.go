package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
)

// Comparator orders two version strings, returning -1, 0 or +1.
// Implementations are total: ties on the parsed value are broken by the
// raw string, so selection is independent of input order.
type Comparator func(a, b string) int

var (
	digitRun    = regexp.MustCompile(`\d+`)
	zeroVersion = mustVersion("0.0.0")
)

func mustVersion(s string) *semver.Version {
	v, err := semver.NewVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// coerce parses a registry version leniently. Strict semantic versions parse
// as-is; otherwise the first three digit runs are taken as major, minor and
// patch. The boolean is true only for a strict parse.
func coerce(s string) (*semver.Version, bool) {
	if v, err := semver.NewVersion(strings.TrimSpace(s)); err == nil {
		return v, true
	}
	runs := digitRun.FindAllString(s, 3)
	if len(runs) == 0 {
		return zeroVersion, false
	}
	for len(runs) < 3 {
		runs = append(runs, "0")
	}
	v, err := semver.NewVersion(fmt.Sprintf("%s.%s.%s", runs[0], runs[1], runs[2]))
	if err != nil {
		return zeroVersion, false
	}
	return v, false
}

// CompareRegistry orders registry versions by semantic-version precedence.
// Unparseable strings are coerced, then treated as 0.0.0. On equal precedence
// a strictly parsed version ranks above a coerced one.
func CompareRegistry(a, b string) int {
	va, cleanA := coerce(a)
	vb, cleanB := coerce(b)
	if c := va.Compare(vb); c != 0 {
		return c
	}
	if cleanA != cleanB {
		if cleanA {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}

// legacyKey is the numeric tuple of a legacy version, stored as decimal
// strings without leading zeros so arbitrarily large components compare
// correctly.
type legacyKey []string

func parseLegacyKey(s string) legacyKey {
	clean, _, _ := strings.Cut(s, "+")
	clean, _, _ = strings.Cut(clean, "-")
	if !strings.ContainsAny(clean, "0123456789") {
		return legacyKey{"0", "0", "0"}
	}
	var key legacyKey
	for _, comp := range strings.Split(clean, ".") {
		var digits strings.Builder
		for _, r := range comp {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		n := strings.TrimLeft(digits.String(), "0")
		if n == "" {
			n = "0"
		}
		key = append(key, n)
	}
	for len(key) < 3 {
		key = append(key, "0")
	}
	return key
}

func compareDecimal(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func (k legacyKey) compare(o legacyKey) int {
	for i := 0; i < len(k) && i < len(o); i++ {
		if c := compareDecimal(k[i], o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(o):
		return -1
	case len(k) > len(o):
		return 1
	}
	return 0
}

// CompareLegacy orders legacy METADATA versions. Build and pre-release
// suffixes are dropped, every dot component keeps only its digits, and the
// resulting tuples (padded to three components) compare element-wise.
// Versions with no digits at all rank as 0.0.0.
func CompareLegacy(a, b string) int {
	if c := parseLegacyKey(a).compare(parseLegacyKey(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SelectLatest returns the maximum of versions under cmp, or false when the
// input is empty.
func SelectLatest(versions []string, cmp Comparator) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if cmp(v, best) > 0 {
			best = v
		}
	}
	return best, true
}
