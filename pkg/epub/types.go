package epub

import "strings"

// Archive is a fully decoded OCF container: every entry is read into memory
// before validation starts.
type Archive struct {
	Path    string
	Data    []byte // raw archive bytes, kept for the local-header read
	Entries []*Entry
	files   map[string]*Entry
}

// Entry is a single archive member. Immutable once read.
type Entry struct {
	Name    string
	Data    []byte
	Method  uint16 // ZIP compression method (0 = stored)
	Ordinal int    // position within the archive
	NonUTF8 bool   // filename bytes are not valid UTF-8
}

// IsDir reports whether the entry is a directory placeholder.
func (e *Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Entry returns the named entry, or nil if absent.
func (a *Archive) Entry(name string) *Entry {
	return a.files[name]
}

// Has reports whether the archive contains the named entry.
func (a *Archive) Has(name string) bool {
	_, ok := a.files[name]
	return ok
}

// Read returns the decoded contents of the named entry.
func (a *Archive) Read(name string) ([]byte, bool) {
	e, ok := a.files[name]
	if !ok {
		return nil, false
	}
	return e.Data, true
}

// Rootfile is a rootfile declaration from META-INF/container.xml.
type Rootfile struct {
	FullPath  string
	MediaType string
}

// Container is the parsed META-INF/container.xml.
type Container struct {
	Version   string
	Rootfiles []Rootfile
}

// PackagePath returns the full-path of the first rootfile declared with the
// package media type, or "" if none is declared.
func (c *Container) PackagePath() string {
	for _, rf := range c.Rootfiles {
		if rf.MediaType == PackageMediaType {
			return rf.FullPath
		}
	}
	return ""
}

// Package is the parsed OPF package document.
type Package struct {
	Version          string
	UniqueIdentifier string
	Manifest         []ManifestItem
	Spine            []SpineItemref
	MetadataLinks    []MetadataLink
	Collections      []Collection
}

// ManifestItem is a single item in the package manifest.
type ManifestItem struct {
	ID           string
	Href         string
	MediaType    string
	Properties   string
	Fallback     string
	MediaOverlay string
	Line         int
}

// SpineItemref is a single itemref in the package spine.
type SpineItemref struct {
	IDRef      string
	Linear     string // "yes", "no", or empty (defaults to yes)
	Properties string
	Line       int
}

// IsLinear reports whether the itemref participates in the default reading
// order. Anything other than an explicit "no" is linear.
func (s SpineItemref) IsLinear() bool {
	return s.Linear != "no"
}

// MetadataLink is a link element from the package metadata.
type MetadataLink struct {
	Href string
	Rel  string
	Line int
}

// Collection is a collection element from the package document.
type Collection struct {
	Role     string
	Links    []CollectionLink
	Children []Collection
	Line     int
}

// CollectionLink is a link element inside a collection.
type CollectionLink struct {
	Href string
	Line int
}

// HasProperty reports whether a space-separated property list contains prop.
func HasProperty(properties, prop string) bool {
	for _, p := range strings.Fields(properties) {
		if p == prop {
			return true
		}
	}
	return false
}
