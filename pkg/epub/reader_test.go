package epub

import (
	"archive/zip"
	"testing"
)

func TestOpenBytes(t *testing.T) {
	data := zipBytes(t, func(w *zip.Writer) {
		fw, _ := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		fw.Write([]byte(MimetypeContent))
		fw, _ = w.Create("META-INF/container.xml")
		fw.Write([]byte("<container/>"))
		fw, _ = w.Create("EPUB/chapter.xhtml")
		fw.Write([]byte("<html/>"))
	})

	a, err := OpenBytes(data)
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(a.Entries))
	}
	if a.Entries[0].Name != "mimetype" || a.Entries[0].Ordinal != 0 {
		t.Errorf("first entry: got %q at %d", a.Entries[0].Name, a.Entries[0].Ordinal)
	}
	if !a.Has("EPUB/chapter.xhtml") {
		t.Error("chapter.xhtml not found")
	}
	content, ok := a.Read("mimetype")
	if !ok || string(content) != MimetypeContent {
		t.Errorf("mimetype content: got %q", content)
	}
}

func TestOpenBytesNotZip(t *testing.T) {
	if _, err := OpenBytes([]byte("not a zip")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestResolveHref(t *testing.T) {
	// Hrefs must be percent-decoded because ZIP entry names use decoded
	// forms while OPF hrefs are IRI-encoded.
	tests := []struct {
		opfPath string
		href    string
		want    string
	}{
		{"EPUB/package.opf", "chapter.xhtml", "EPUB/chapter.xhtml"},
		{"EPUB/package.opf", "chapter%20one.xhtml", "EPUB/chapter one.xhtml"},
		{"EPUB/package.opf", "sub/page.xhtml", "EPUB/sub/page.xhtml"},
		{"EPUB/package.opf", "../cover.jpg", "cover.jpg"},
		{"EPUB/package.opf", "file%2Bplus.xhtml", "EPUB/file+plus.xhtml"},
		{"content.opf", "chapter.xhtml", "chapter.xhtml"},
		{"content.opf", "chapter%20one.xhtml", "chapter one.xhtml"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got := ResolveHref(tt.opfPath, tt.href)
			if got != tt.want {
				t.Errorf("ResolveHref(%q, %q) = %q, want %q", tt.opfPath, tt.href, got, tt.want)
			}
		})
	}
}

func TestParseContainer(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile media-type="application/oebps-package+xml" full-path="OEBPS/content.opf"/>
    <rootfile full-path="OEBPS/alt.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	c, err := ParseContainer(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Rootfiles) != 2 {
		t.Fatalf("rootfiles: got %d, want 2", len(c.Rootfiles))
	}
	// Attribute order in the rootfile element must not matter.
	if got := c.PackagePath(); got != "OEBPS/content.opf" {
		t.Errorf("package path: got %q, want %q", got, "OEBPS/content.opf")
	}
}

func TestParseContainerNoRootfile(t *testing.T) {
	c, err := ParseContainer([]byte(`<container><rootfiles/></container>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.PackagePath(); got != "" {
		t.Errorf("package path: got %q, want empty", got)
	}
}

func TestParseContainerMalformed(t *testing.T) {
	if _, err := ParseContainer([]byte(`<container><rootfiles>`)); err == nil {
		t.Error("expected error for malformed container.xml")
	}
}

func TestParsePackage(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:0</dc:identifier>
    <link rel="record" href="meta/record.xml"/>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="map" href="map.png" media-type="image/tiff" fallback="c1"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="nav" linear="no"/>
  </spine>
  <collection role="index">
    <link href="chapter1.xhtml"/>
  </collection>
</package>`)

	pkg, err := ParsePackage(data)
	if err != nil {
		t.Fatal(err)
	}

	if pkg.Version != "3.0" {
		t.Errorf("version: got %q", pkg.Version)
	}
	if len(pkg.Manifest) != 3 {
		t.Fatalf("manifest: got %d items", len(pkg.Manifest))
	}
	if pkg.Manifest[2].Fallback != "c1" {
		t.Errorf("fallback: got %q", pkg.Manifest[2].Fallback)
	}
	if len(pkg.Spine) != 2 {
		t.Fatalf("spine: got %d itemrefs", len(pkg.Spine))
	}
	if pkg.Spine[0].IsLinear() != true || pkg.Spine[1].IsLinear() != false {
		t.Error("linear flags wrong")
	}
	if len(pkg.MetadataLinks) != 1 || pkg.MetadataLinks[0].Href != "meta/record.xml" {
		t.Errorf("metadata links: %+v", pkg.MetadataLinks)
	}
	if len(pkg.Collections) != 1 || pkg.Collections[0].Role != "index" {
		t.Fatalf("collections: %+v", pkg.Collections)
	}
	if len(pkg.Collections[0].Links) != 1 {
		t.Errorf("collection links: %+v", pkg.Collections[0].Links)
	}

	nav, ok := pkg.NavItem()
	if !ok || nav.ID != "nav" {
		t.Errorf("nav item: %+v", nav)
	}
	if pkg.Scripted() {
		t.Error("publication should not be scripted")
	}
}

func TestParsePackageNestedCollections(t *testing.T) {
	data := []byte(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest/>
  <spine/>
  <collection role="index-group">
    <collection role="index">
      <link href="idx.xhtml"/>
    </collection>
  </collection>
</package>`)

	pkg, err := ParsePackage(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkg.Collections) != 1 {
		t.Fatalf("collections: got %d", len(pkg.Collections))
	}
	outer := pkg.Collections[0]
	if outer.Role != "index-group" || len(outer.Children) != 1 {
		t.Fatalf("outer collection: %+v", outer)
	}
	if outer.Children[0].Role != "index" || len(outer.Children[0].Links) != 1 {
		t.Errorf("inner collection: %+v", outer.Children[0])
	}
}

func TestLineIndex(t *testing.T) {
	data := []byte("first\nsecond\nthird")
	li := NewLineIndex(data)

	tests := []struct {
		offset    int64
		line, col int
	}{
		{0, 1, 1},
		{5, 1, 6},
		{6, 2, 1},
		{13, 3, 1},
		{17, 3, 5},
	}
	for _, tt := range tests {
		line, col := li.Position(tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("Position(%d) = (%d,%d), want (%d,%d)", tt.offset, line, col, tt.line, tt.col)
		}
	}
}
