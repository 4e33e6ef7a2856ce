package validate

import (
	"fmt"
	"strings"
	"unicode"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

// checkOCF runs all container-structure checks. It returns the package
// document path and whether a fatal defect stops the pipeline.
func checkOCF(arc *epub.Archive, r *report.Report) (string, bool) {
	checkMimetype(arc, r)
	checkFilenames(arc, r)
	checkDuplicateEntries(arc, r)
	checkEmptyDirectories(arc, r)

	return checkContainerXML(arc, r)
}

// checkMimetype validates the four structural properties of the mimetype
// entry: archive ordinal 0, no extra field, stored (method 0), and content
// byte-equal to "application/epub+zip". The comparison is deliberately
// untrimmed: trailing whitespace is a content mismatch like any other.
func checkMimetype(arc *epub.Archive, r *report.Report) {
	entry := arc.Entry("mimetype")
	if entry == nil || entry.Ordinal != 0 {
		r.Add("PKG-006", "Mimetype entry is missing or is not the first entry in the archive")
		if entry == nil {
			return
		}
	}

	method := entry.Method
	// The central directory can disagree with the local header on exactly
	// the fields we need; read the first local header from the raw bytes.
	if header, err := epub.ParseFirstLocalHeader(arc.Data); err == nil && header.Filename == "mimetype" {
		method = header.CompressionMethod
		if header.ExtraFieldLength > 0 {
			r.Add("PKG-005", fmt.Sprintf(
				"The mimetype entry has an extra field of length %d; the ZIP extra field feature must not be used for the mimetype entry",
				header.ExtraFieldLength))
		}
	}

	if method != 0 {
		r.Add("PKG-007", "The mimetype entry must not be compressed")
	}
	if string(entry.Data) != epub.MimetypeContent {
		r.Add("PKG-007", fmt.Sprintf(
			"The mimetype entry must contain only the string %q", epub.MimetypeContent))
	}
}

// checkContainerXML requires META-INF/container.xml, extracts rootfile
// declarations and selects the package document. Missing container or
// missing rootfile declarations are fatal short-circuits.
func checkContainerXML(arc *epub.Archive, r *report.Report) (string, bool) {
	data, ok := arc.Read(epub.ContainerPath)
	if !ok {
		r.Add("RSC-002", "Required META-INF/container.xml resource was not found in the container")
		return "", true
	}

	container, err := epub.ParseContainer(data)
	if err != nil {
		r.OverrideAt(report.Fatal, "RSC-005",
			"META-INF/container.xml could not be parsed: XML document structures must be well-formed",
			report.Loc(epub.ContainerPath, 0, 0))
		return "", true
	}

	opfPath := container.PackagePath()
	if opfPath == "" {
		r.OverrideAt(report.Fatal, "RSC-005",
			"No rootfile element with media type 'application/oebps-package+xml' was found in container.xml",
			report.Loc(epub.ContainerPath, 0, 0))
		return "", true
	}

	packageRootfiles := 0
	for _, rf := range container.Rootfiles {
		if rf.MediaType == epub.PackageMediaType {
			packageRootfiles++
		}
		if rf.FullPath != opfPath && !arc.Has(rf.FullPath) {
			r.AddAt("RSC-001", fmt.Sprintf(
				"Rootfile %q declared in container.xml was not found in the container", rf.FullPath),
				report.Loc(epub.ContainerPath, 0, 0))
		}
	}
	if packageRootfiles > 1 {
		r.Add("PKG-013", "The EPUB file includes multiple OPS renditions")
	}

	if !arc.Has(opfPath) {
		r.Add("OPF-002", fmt.Sprintf("The package document %q was not found in the container", opfPath))
		return "", true
	}

	return opfPath, false
}

// disallowedASCII is the closed set of ASCII punctuation forbidden in OCF
// file names.
const disallowedASCII = `"*:<>?\|`

// checkFilenames validates every non-mimetype entry name against the OCF
// filename rules.
func checkFilenames(arc *epub.Archive, r *report.Report) {
	for _, e := range arc.Entries {
		if e.Name == "mimetype" {
			continue
		}
		name := strings.TrimSuffix(e.Name, "/")

		if e.NonUTF8 {
			r.Add("PKG-027", fmt.Sprintf("File name is not encoded in UTF-8: %q", e.Name))
			continue
		}
		if name == "" || name == "." || name == ".." {
			r.Add("PKG-009", fmt.Sprintf("File name %q is not a legal OCF file name", e.Name))
			continue
		}
		if bad := disallowedRunes(name); bad != "" {
			r.Add("PKG-009", fmt.Sprintf(
				"File name contains characters disallowed in OCF file names: %q (%s)", e.Name, bad))
		}
		if strings.HasSuffix(name, ".") {
			r.Add("PKG-011", fmt.Sprintf("File name must not end with '.': %q", e.Name))
		}
		if strings.ContainsAny(name, " \t") {
			r.Add("PKG-010", fmt.Sprintf(
				"File name contains spaces, therefore URI escaping is necessary; consider renaming %q", e.Name))
		}
		if hasNonASCII(name) {
			r.Add("PKG-012", fmt.Sprintf("File name contains non-ASCII characters: %q", e.Name))
		}
	}
}

// disallowedRunes returns a printable list of the forbidden code points in
// name, or "" when the name is clean.
func disallowedRunes(name string) string {
	var bad []string
	for _, c := range name {
		switch {
		case strings.ContainsRune(disallowedASCII, c):
			bad = append(bad, fmt.Sprintf("%q", c))
		case c < 0x20, c == 0x7F: // C0 controls and DEL
			bad = append(bad, fmt.Sprintf("U+%04X", c))
		case c >= 0x80 && c <= 0x9F: // C1 controls
			bad = append(bad, fmt.Sprintf("U+%04X", c))
		case c >= 0xE000 && c <= 0xF8FF: // Private Use Area
			bad = append(bad, fmt.Sprintf("U+%04X", c))
		case c >= 0xFFF0 && c <= 0xFFFF: // Specials block
			bad = append(bad, fmt.Sprintf("U+%04X", c))
		}
	}
	return strings.Join(bad, ", ")
}

func hasNonASCII(name string) bool {
	for _, c := range name {
		if c > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// checkDuplicateEntries reports byte-identical duplicate entry names, and
// distinct names that collide after canonical case folding (NFD plus full
// case fold).
func checkDuplicateEntries(arc *epub.Archive, r *report.Report) {
	exact := make(map[string]bool)
	folded := make(map[string]string) // canonical form -> first raw name

	for _, e := range arc.Entries {
		if exact[e.Name] {
			r.Add("OPF-060", fmt.Sprintf("Duplicate entry in the ZIP file: %q", e.Name))
			continue
		}
		exact[e.Name] = true

		key := canonicalCaseFold(e.Name)
		if first, ok := folded[key]; ok {
			r.Add("OPF-061", fmt.Sprintf(
				"Entries %q and %q resolve to the same file name after Unicode canonical case folding",
				first, e.Name))
		} else {
			folded[key] = e.Name
		}
	}
}

// checkEmptyDirectories flags directory entries with no descendant files.
func checkEmptyDirectories(arc *epub.Archive, r *report.Report) {
	for _, dir := range arc.Entries {
		if !dir.IsDir() {
			continue
		}
		hasDescendant := false
		for _, e := range arc.Entries {
			if e != dir && !e.IsDir() && strings.HasPrefix(e.Name, dir.Name) {
				hasDescendant = true
				break
			}
		}
		if !hasDescendant {
			r.Add("PKG-014", fmt.Sprintf("The EPUB contains an empty directory: %q", dir.Name))
		}
	}
}
