package validate

import (
	"regexp"
	"strings"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

var (
	cssURLRe      = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)
	cssImportRe   = regexp.MustCompile(`@import\s+(?:url\(\s*)?['"]?([^'")\s;]+)['"]?`)
	cssFontFaceRe = regexp.MustCompile(`(?s)@font-face\s*\{[^}]*\}`)
)

// scanStylesheet extracts reference edges from a CSS document: @import
// targets, @font-face sources, and every other url() value. CSS is not
// tokenized properly here; the same regular-expression extraction the
// content checks use is enough to recover reference edges.
func scanStylesheet(data []byte, docPath string, chk *Checker) {
	css := string(data)
	lines := epub.NewLineIndex(data)

	locAt := func(offset int) report.Location {
		line, col := lines.Position(int64(offset))
		return report.Loc(docPath, line, col)
	}

	for _, m := range cssImportRe.FindAllStringSubmatchIndex(css, -1) {
		target := css[m[2]:m[3]]
		chk.Resolve(locAt(m[0]), target, RefStylesheet, false)
	}

	// url() values inside @font-face blocks are font references; track the
	// covered ranges so the generic pass below skips them.
	type span struct{ start, end int }
	var fontSpans []span
	for _, block := range cssFontFaceRe.FindAllStringIndex(css, -1) {
		fontSpans = append(fontSpans, span{block[0], block[1]})
		for _, m := range cssURLRe.FindAllStringSubmatchIndex(css[block[0]:block[1]], -1) {
			target := css[block[0]+m[2] : block[0]+m[3]]
			chk.Resolve(locAt(block[0]+m[0]), target, RefFont, false)
		}
	}

	for _, m := range cssURLRe.FindAllStringSubmatchIndex(css, -1) {
		inFontFace := false
		for _, s := range fontSpans {
			if m[0] >= s.start && m[0] < s.end {
				inFontFace = true
				break
			}
		}
		if inFontFace {
			continue
		}
		target := css[m[2]:m[3]]
		// @import url(...) was already collected by the import pass.
		if importCovers(css, m[0]) {
			continue
		}
		chk.Resolve(locAt(m[0]), target, RefGeneric, false)
	}
}

// importCovers reports whether the url() at offset belongs to an @import rule.
func importCovers(css string, offset int) bool {
	start := offset - 16
	if start < 0 {
		start = 0
	}
	return strings.Contains(css[start:offset], "@import")
}
