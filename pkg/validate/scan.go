package validate

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

// scanContent walks every local content document in the manifest, registers
// its ids with the resource registry and collects reference edges. All
// edges are merged into the checker before its validation phase begins.
func scanContent(arc *epub.Archive, pkg *epub.Package, opfPath string, reg *Registry, chk *Checker) {
	for _, link := range pkg.MetadataLinks {
		if link.Href == "" {
			continue
		}
		chk.Resolve(report.Loc(opfPath, link.Line, 0), link.Href, RefLink, false)
	}

	for _, item := range pkg.Manifest {
		if item.Href == "" || epub.IsRemoteHref(item.Href) {
			continue
		}
		full := manifestURL(opfPath, item.Href)
		data, ok := arc.Read(full)
		if !ok {
			continue // missing resources are reported by the manifest check
		}
		switch baseMediaType(item.MediaType) {
		case "application/xhtml+xml":
			scanMarkup(data, full, epub.HasProperty(item.Properties, "nav"), reg, chk)
		case "image/svg+xml":
			scanMarkup(data, full, false, reg, chk)
		case "application/smil+xml":
			scanOverlay(data, full, chk)
		case "text/css":
			scanStylesheet(data, full, chk)
		}
	}
}

// svgPaintRe matches url(#id) values in SVG paint attributes.
var svgPaintRe = regexp.MustCompile(`^url\(\s*(#[^)\s]+)\s*\)$`)

// scanMarkup token-walks an XHTML or SVG document. Malformed markup stops
// the walk silently; well-formedness is a schema concern, not ours.
func scanMarkup(data []byte, docPath string, isNavDoc bool, reg *Registry, chk *Checker) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	lines := epub.NewLineIndex(data)

	var stack []string      // open element names
	var navTypes []string   // epub:type of open nav elements
	var pending []Reference // object edges waiting for their end tag
	pendingHasChild := false

	loc := func() report.Location {
		line, col := lines.Position(decoder.InputOffset())
		return report.Loc(docPath, line, col)
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF || err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if len(pending) > 0 {
				pendingHasChild = true
			}

			attrs := attrMap(t)
			if id := attrs["id"]; id != "" {
				reg.RegisterID(docPath, id)
				if name == "symbol" {
					reg.RegisterSVGSymbolID(docPath, id)
				}
			}

			switch name {
			case "nav":
				navTypes = append(navTypes, epubType(t))
			case "a":
				if href := attrs["href"]; href != "" {
					chk.Resolve(loc(), href, anchorType(isNavDoc, navTypes), false)
				}
			case "link":
				if epub.HasProperty(attrs["rel"], "stylesheet") && attrs["href"] != "" {
					chk.Resolve(loc(), attrs["href"], RefStylesheet, false)
				}
			case "img":
				if src := attrs["src"]; src != "" {
					chk.Resolve(loc(), src, RefImage, insideElement(stack, "picture"))
				}
			case "image":
				if href := hrefAttr(attrs); href != "" {
					chk.Resolve(loc(), href, RefImage, false)
				}
			case "use":
				if href := hrefAttr(attrs); href != "" {
					chk.Resolve(loc(), href, RefSVGSymbol, false)
				}
			case "script", "iframe", "embed", "track":
				if src := attrs["src"]; src != "" {
					chk.Resolve(loc(), src, RefGeneric, false)
				}
			case "audio":
				if src := attrs["src"]; src != "" {
					chk.Resolve(loc(), src, RefAudio, false)
				}
			case "video":
				if src := attrs["src"]; src != "" {
					chk.Resolve(loc(), src, RefVideo, false)
				}
				if poster := attrs["poster"]; poster != "" {
					chk.Resolve(loc(), poster, RefImage, false)
				}
			case "source":
				if src := attrs["src"]; src != "" {
					switch {
					case insideElement(stack, "audio"):
						chk.Resolve(loc(), src, RefAudio, false)
					case insideElement(stack, "video"):
						chk.Resolve(loc(), src, RefVideo, false)
					case insideElement(stack, "picture"):
						// A picture source always has an img sibling
						// supplying intrinsic fallback content.
						chk.Resolve(loc(), src, RefImage, true)
					}
				}
			case "object":
				if data := attrs["data"]; data != "" {
					pending = append(pending, Reference{Source: loc(), RawURL: data, Type: RefGeneric})
					pendingHasChild = false
				}
			case "blockquote", "q", "ins", "del":
				if cite := attrs["cite"]; cite != "" {
					chk.Resolve(loc(), cite, RefCite, false)
				}
			}

			// SVG paint servers reference gradient and pattern ids.
			for _, attr := range t.Attr {
				switch attr.Name.Local {
				case "fill", "stroke", "clip-path", "filter", "mask":
					if m := svgPaintRe.FindStringSubmatch(attr.Value); m != nil {
						chk.Resolve(loc(), m[1], RefSVGPaint, false)
					}
				}
			}

			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch t.Name.Local {
			case "nav":
				if len(navTypes) > 0 {
					navTypes = navTypes[:len(navTypes)-1]
				}
			case "object":
				if len(pending) > 0 {
					ref := pending[len(pending)-1]
					pending = pending[:len(pending)-1]
					chk.Resolve(ref.Source, ref.RawURL, ref.Type, pendingHasChild)
				}
			}
		}
	}
}

// anchorType classifies an <a> edge: inside a toc or page-list nav of the
// navigation document the link participates in navigation policy checks,
// elsewhere it is a plain hyperlink.
func anchorType(isNavDoc bool, navTypes []string) RefType {
	if !isNavDoc {
		return RefHyperlink
	}
	for i := len(navTypes) - 1; i >= 0; i-- {
		switch {
		case epub.HasProperty(navTypes[i], "toc"):
			return RefNavTocLink
		case epub.HasProperty(navTypes[i], "page-list"):
			return RefNavPageListLink
		}
	}
	return RefHyperlink
}

// scanOverlay collects the audio and text edges of a media overlay document.
func scanOverlay(data []byte, docPath string, chk *Checker) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	lines := epub.NewLineIndex(data)

	for {
		tok, err := decoder.Token()
		if err == io.EOF || err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		attrs := attrMap(se)
		src := attrs["src"]
		if src == "" {
			continue
		}
		line, col := lines.Position(decoder.InputOffset())
		loc := report.Loc(docPath, line, col)
		switch se.Name.Local {
		case "text":
			chk.Resolve(loc, src, RefOverlayTextLink, false)
		case "audio":
			chk.Resolve(loc, src, RefAudio, false)
		}
	}
}

func attrMap(se xml.StartElement) map[string]string {
	m := make(map[string]string, len(se.Attr))
	for _, attr := range se.Attr {
		if _, ok := m[attr.Name.Local]; !ok {
			m[attr.Name.Local] = attr.Value
		}
	}
	return m
}

// epubType returns the epub:type attribute value of an element.
func epubType(se xml.StartElement) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == "type" && strings.Contains(attr.Name.Space, "idpf.org") {
			return attr.Value
		}
	}
	// Fall back to any bare type attribute; content documents in the wild
	// often omit the namespace binding.
	for _, attr := range se.Attr {
		if attr.Name.Local == "type" {
			return attr.Value
		}
	}
	return ""
}

// hrefAttr returns href or xlink:href, whichever is present.
func hrefAttr(attrs map[string]string) string {
	return attrs["href"]
}

func insideElement(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
