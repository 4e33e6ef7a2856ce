package validate

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// canonicalCaseFold returns the canonical decomposition (NFD) of s with
// Unicode full case folding applied. Full folding includes the multi-rune
// expansions (ß→ss, ﬁ→fi, İ→i̇) that simple lowercasing misses, so two
// filenames that differ only in case or composition form collide here.
func canonicalCaseFold(s string) string {
	return cases.Fold().String(norm.NFD.String(s))
}
