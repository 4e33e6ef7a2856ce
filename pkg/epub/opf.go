package epub

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"emperror.dev/errors"
)

// ParsePackage parses an OPF package document with a raw token walk, which
// tolerates missing attributes and records source lines for the graph checks.
func ParsePackage(data []byte) (*Package, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	pkg := &Package{}
	lines := newLineIndex(data)

	inMetadata := false
	inManifest := false
	inSpine := false
	var collections []*Collection // open collection stack

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithMessage(err, "parsing package document")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line := lines.at(decoder.InputOffset())
			switch t.Name.Local {
			case "package":
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "version":
						pkg.Version = attr.Value
					case "unique-identifier":
						pkg.UniqueIdentifier = attr.Value
					}
				}
			case "metadata":
				inMetadata = true
			case "manifest":
				inManifest = true
			case "spine":
				inSpine = true
			case "item":
				if inManifest {
					pkg.Manifest = append(pkg.Manifest, parseManifestItem(t, line))
				}
			case "itemref":
				if inSpine {
					ref := SpineItemref{Line: line}
					for _, attr := range t.Attr {
						switch attr.Name.Local {
						case "idref":
							ref.IDRef = attr.Value
						case "linear":
							ref.Linear = attr.Value
						case "properties":
							ref.Properties = attr.Value
						}
					}
					pkg.Spine = append(pkg.Spine, ref)
				}
			case "link":
				href, rel := "", ""
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "href":
						href = attr.Value
					case "rel":
						rel = attr.Value
					}
				}
				if len(collections) > 0 {
					top := collections[len(collections)-1]
					top.Links = append(top.Links, CollectionLink{Href: href, Line: line})
				} else if inMetadata {
					pkg.MetadataLinks = append(pkg.MetadataLinks, MetadataLink{Href: href, Rel: rel, Line: line})
				}
			case "collection":
				col := &Collection{Line: line}
				for _, attr := range t.Attr {
					if attr.Name.Local == "role" {
						col.Role = attr.Value
					}
				}
				collections = append(collections, col)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "metadata":
				inMetadata = false
			case "manifest":
				inManifest = false
			case "spine":
				inSpine = false
			case "collection":
				if len(collections) == 0 {
					break
				}
				done := collections[len(collections)-1]
				collections = collections[:len(collections)-1]
				if len(collections) > 0 {
					parent := collections[len(collections)-1]
					parent.Children = append(parent.Children, *done)
				} else {
					pkg.Collections = append(pkg.Collections, *done)
				}
			}
		}
	}

	return pkg, nil
}

func parseManifestItem(t xml.StartElement, line int) ManifestItem {
	item := ManifestItem{Line: line}
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "id":
			item.ID = attr.Value
		case "href":
			item.Href = attr.Value
		case "media-type":
			item.MediaType = attr.Value
		case "properties":
			item.Properties = attr.Value
		case "fallback":
			item.Fallback = attr.Value
		case "media-overlay":
			item.MediaOverlay = attr.Value
		}
	}
	return item
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int64 // byte offset of each line start
}

func newLineIndex(data []byte) *lineIndex {
	idx := &lineIndex{starts: []int64{0}}
	for i, b := range data {
		if b == '\n' {
			idx.starts = append(idx.starts, int64(i)+1)
		}
	}
	return idx
}

// at returns the line containing the given byte offset.
func (li *lineIndex) at(offset int64) int {
	n := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	})
	return n
}

// col returns the 1-based column of the given byte offset.
func (li *lineIndex) col(offset int64) int {
	line := li.at(offset)
	return int(offset-li.starts[line-1]) + 1
}

// NewLineIndex exposes the line index for content scanners.
func NewLineIndex(data []byte) *LineIndex {
	return &LineIndex{inner: newLineIndex(data)}
}

// LineIndex maps byte offsets in a document to line/column positions.
type LineIndex struct {
	inner *lineIndex
}

// Position returns the 1-based line and column for offset.
func (li *LineIndex) Position(offset int64) (line, col int) {
	return li.inner.at(offset), li.inner.col(offset)
}

// ItemByID returns the manifest item with the given id.
func (p *Package) ItemByID(id string) (ManifestItem, bool) {
	for _, item := range p.Manifest {
		if item.ID == id && id != "" {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// Scripted reports whether any manifest item declares the scripted property.
func (p *Package) Scripted() bool {
	for _, item := range p.Manifest {
		if HasProperty(item.Properties, "scripted") {
			return true
		}
	}
	return false
}

// NavItem returns the manifest item carrying the nav property.
func (p *Package) NavItem() (ManifestItem, bool) {
	for _, item := range p.Manifest {
		if HasProperty(item.Properties, "nav") {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// IsRemoteHref reports whether an href addresses a remote resource.
func IsRemoteHref(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
