package validate

import (
	"archive/zip"
	"bytes"
	"testing"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

// zentry is one archive member for test publication construction. Entries
// are written in slice order; the zero method is Store.
type zentry struct {
	name    string
	content string
	method  uint16
	extra   []byte
}

func archiveBytes(t *testing.T, entries []zentry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:   e.name,
			Method: e.method,
			Extra:  e.extra,
		})
		if err != nil {
			t.Fatalf("creating entry %q: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("writing entry %q: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func openArchive(t *testing.T, entries []zentry) *epub.Archive {
	t.Helper()
	arc, err := epub.OpenBytes(archiveBytes(t, entries))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	return arc
}

const minimalContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="EPUB/package.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const minimalPackageOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:7d3c4f8e-0000-0000-0000-000000000000</dc:identifier>
    <dc:title>Minimal</dc:title>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
  </spine>
</package>`

const minimalNavXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
<nav epub:type="toc">
<ol><li><a href="chapter1.xhtml">Chapter 1</a></li></ol>
</nav>
</body>
</html>`

const minimalChapterXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 1</title></head>
<body><h1 id="top">Chapter 1</h1><p id="para1">Text.</p></body>
</html>`

// minimalPub returns a well-formed single-chapter publication that
// validates clean. Tests mutate the slice to provoke specific defects.
func minimalPub() []zentry {
	return []zentry{
		{name: "mimetype", content: epub.MimetypeContent},
		{name: "META-INF/container.xml", content: minimalContainerXML},
		{name: "EPUB/package.opf", content: minimalPackageOPF},
		{name: "EPUB/nav.xhtml", content: minimalNavXHTML},
		{name: "EPUB/chapter1.xhtml", content: minimalChapterXHTML},
	}
}

// setEntry replaces the named entry's content, appending when absent.
func setEntry(entries []zentry, name, content string) []zentry {
	for i := range entries {
		if entries[i].name == name {
			entries[i].content = content
			return entries
		}
	}
	return append(entries, zentry{name: name, content: content})
}

func validatePub(t *testing.T, entries []zentry) *report.Report {
	t.Helper()
	return ValidateBytes(archiveBytes(t, entries), Options{})
}

func messageIDs(r *report.Report) []string {
	ids := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		ids = append(ids, m.ID)
	}
	return ids
}

func assertOnlyID(t *testing.T, r *report.Report, id string) {
	t.Helper()
	if len(r.Messages) != 1 || r.Messages[0].ID != id {
		t.Errorf("want exactly one %s message, got %v", id, messageIDs(r))
	}
}

func assertNoMessages(t *testing.T, r *report.Report) {
	t.Helper()
	if len(r.Messages) != 0 {
		t.Errorf("want clean report, got %v", messageIDs(r))
	}
}
