package validate

import (
	"fmt"
	"os"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

// Options configures validation behavior.
type Options struct {
	// MaxMessages caps the number of non-fatal messages emitted; 0 means
	// unlimited. Validation always traverses the whole publication either
	// way, the ceiling only suppresses emission.
	MaxMessages int
}

// Validate runs all checks on an EPUB file and returns a report.
func Validate(path string) (*report.Report, error) {
	return ValidateWithOptions(path, Options{})
}

// ValidateWithOptions runs validation with the given options.
func ValidateWithOptions(path string, opts Options) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		r := report.NewReport()
		r.Add("PKG-008", fmt.Sprintf("Unable to read EPUB file %q: %v", path, err))
		return r, nil
	}
	return ValidateBytes(data, opts), nil
}

// ValidateBytes validates an EPUB publication held fully in memory.
// The pipeline is synchronous: container checks, package document parse,
// registry population, content scan, then the two-phase reference check.
// A fatal container defect short-circuits all downstream stages.
func ValidateBytes(data []byte, opts Options) *report.Report {
	r := report.NewReport()
	r.SetLimit(opts.MaxMessages)

	if len(data) == 0 {
		r.Add("PKG-003", "Unable to read EPUB file header: the file is empty")
		return r
	}
	if _, err := epub.ParseFirstLocalHeader(data); err != nil {
		r.Add("PKG-004", "Corrupted ZIP header: the file does not start with a ZIP local file header")
		return r
	}

	arc, err := epub.OpenBytes(data)
	if err != nil {
		r.Add("PKG-008", fmt.Sprintf("Unable to read EPUB contents: %v", err))
		return r
	}

	opfPath, fatal := checkOCF(arc, r)
	if fatal {
		return r
	}

	opfData, _ := arc.Read(opfPath)
	pkg, err := epub.ParsePackage(opfData)
	if err != nil {
		r.AddAt("OPF-011", "Could not parse the package document: XML document structures must be well-formed",
			report.Loc(opfPath, 0, 0))
		return r
	}

	checkManifest(arc, pkg, opfPath, r)

	reg := buildRegistry(pkg, opfPath)
	checkCollections(pkg, opfPath, reg, r)

	chk := NewChecker(arc, reg, opfPath, pkg.Scripted())
	scanContent(arc, pkg, opfPath, reg, chk)
	chk.Validate(pkg, r)

	return r
}
