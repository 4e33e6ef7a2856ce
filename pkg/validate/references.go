package validate

import (
	"fmt"
	"strings"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

// RefType classifies a reference edge by its authoring context.
type RefType int

const (
	RefHyperlink RefType = iota
	RefImage
	RefAudio
	RefVideo
	RefFont
	RefStylesheet
	RefGeneric
	RefLink // package metadata link
	RefCite
	RefNavTocLink
	RefNavPageListLink
	RefOverlayTextLink
	RefSVGSymbol
	RefSVGPaint
)

var refTypeNames = map[RefType]string{
	RefHyperlink:       "hyperlink",
	RefImage:           "image",
	RefAudio:           "audio",
	RefVideo:           "video",
	RefFont:            "font",
	RefStylesheet:      "stylesheet",
	RefGeneric:         "generic",
	RefLink:            "link",
	RefCite:            "citation",
	RefNavTocLink:      "toc link",
	RefNavPageListLink: "page-list link",
	RefOverlayTextLink: "overlay text link",
	RefSVGSymbol:       "svg symbol",
	RefSVGPaint:        "svg paint",
}

func (t RefType) String() string { return refTypeNames[t] }

// isHyperlinkClass reports whether edges of this type navigate the user,
// which constrains them to spine targets and counts for reachability.
func (t RefType) isHyperlinkClass() bool {
	switch t {
	case RefHyperlink, RefNavTocLink, RefNavPageListLink:
		return true
	}
	return false
}

// isContentDocClass reports whether the edge must target a content document
// (or a resource with a Core Media Type fallback).
func (t RefType) isContentDocClass() bool {
	return t == RefHyperlink || t == RefOverlayTextLink
}

// isNavClass reports whether the edge originates in the navigation document.
func (t RefType) isNavClass() bool {
	return t == RefNavTocLink || t == RefNavPageListLink
}

// isPublicationResourceClass reports whether the edge addresses a rendered
// publication resource, as opposed to out-of-band metadata.
func (t RefType) isPublicationResourceClass() bool {
	return t != RefLink && t != RefCite
}

// forbidsDataURL reports whether a data URL is illegal in this context.
func (t RefType) forbidsDataURL() bool {
	return t.isHyperlinkClass() || t == RefCite
}

// Reference is a single cross-reference edge. Append-only and immutable.
type Reference struct {
	Source               report.Location
	RawURL               string
	Target               string // resolved container path, or absolute remote URL
	Fragment             string
	Type                 RefType
	HasIntrinsicFallback bool // the authoring context supplies inline fallback content
}

// Checker is the cross-reference engine. It follows a strict two-phase
// protocol: Register collects edges, Validate runs per-edge and whole-graph
// checks once every edge is known.
type Checker struct {
	arc      *epub.Archive
	reg      *Registry
	opfPath  string
	scripted bool
	refs     []Reference
}

// NewChecker creates a reference checker over the archive and registry.
// scripted marks publications declaring scripted content, which weakens
// the non-linear reachability verdict.
func NewChecker(arc *epub.Archive, reg *Registry, opfPath string, scripted bool) *Checker {
	return &Checker{arc: arc, reg: reg, opfPath: opfPath, scripted: scripted}
}

// Register appends a collected edge. Edges are not validated until
// Validate runs; several whole-graph checks need global knowledge first.
func (c *Checker) Register(ref Reference) {
	c.refs = append(c.refs, ref)
}

// Resolve turns a raw authored URL into a Reference edge. The fragment is
// stripped into its own field and local paths are resolved against the
// source document.
func (c *Checker) Resolve(source report.Location, raw string, typ RefType, intrinsicFallback bool) {
	ref := Reference{
		Source:               source,
		RawURL:               raw,
		Type:                 typ,
		HasIntrinsicFallback: intrinsicFallback,
	}
	switch classifyURL(raw) {
	case urlLocal:
		path, frag := splitFragment(raw)
		ref.Fragment = frag
		if path == "" {
			ref.Target = source.Path // fragment-only self reference
		} else {
			ref.Target, _, _ = resolveReference(source.Path, path)
		}
	case urlRemote:
		path, frag := splitFragment(raw)
		ref.Target = path
		ref.Fragment = frag
	default:
		// data/file/malformed URLs keep the raw form; validation
		// classifies them again.
		ref.Target = raw
	}
	c.Register(ref)
}

// Validate runs every per-edge check, then the whole-graph checks.
// Each check is independent and non-throwing: one bad edge never aborts
// validation of the rest of the graph.
func (c *Checker) Validate(pkg *epub.Package, r *report.Report) {
	for _, ref := range c.refs {
		c.checkReference(ref, r)
	}
	c.checkUnreferencedResources(r)
	c.checkNonLinearReachability(r)
	c.checkReadingOrder(r)
	checkFallbackChains(pkg, c.opfPath, r)
}

func (c *Checker) checkReference(ref Reference, r *report.Report) {
	switch classifyURL(ref.RawURL) {
	case urlMalformed:
		r.AddAt("RSC-020", fmt.Sprintf("%q is not a valid URL", ref.RawURL), ref.Source)
	case urlData:
		c.checkDataURL(ref, r)
	case urlFile:
		r.AddAt("RSC-030", fmt.Sprintf("File URLs are not allowed in EPUB, but found %q", ref.RawURL), ref.Source)
	case urlRemote:
		c.checkRemote(ref, r)
	case urlLocal:
		c.checkLocal(ref, r)
	}
}

func (c *Checker) checkDataURL(ref Reference, r *report.Report) {
	if ref.Type.forbidsDataURL() {
		r.AddAt("RSC-029", fmt.Sprintf("Data URLs are not allowed in this context: %q", truncateURL(ref.RawURL)), ref.Source)
		return
	}
	mt := dataURLMediaType(ref.RawURL)
	if mt != "" && !isCoreMediaType(mt) && !ref.HasIntrinsicFallback {
		r.AddAt("RSC-032", fmt.Sprintf(
			"The data URL resource of type %q is a foreign resource and must have a fallback to a Core Media Type", mt),
			ref.Source)
	}
}

func (c *Checker) checkRemote(ref Reference, r *report.Report) {
	res := c.reg.Resource(ref.Target)

	if ref.Type.isPublicationResourceClass() && !ref.Type.isHyperlinkClass() {
		if strings.HasPrefix(strings.ToLower(ref.Target), "http://") {
			r.AddAt("RSC-031", fmt.Sprintf(
				"Remote resource %q should be retrieved over HTTPS", ref.Target), ref.Source)
		}
		allowed := ref.Type == RefAudio || ref.Type == RefVideo || ref.Type == RefFont
		if !allowed && res != nil && isRemoteAllowedType(res.MimeType) {
			allowed = true
		}
		if !allowed {
			r.AddAt("RSC-006", fmt.Sprintf(
				"Remote resource reference not allowed; resource must be placed in the OCF: %q", ref.Target),
				ref.Source)
		}
	}
	// Remote targets cannot be introspected; fragment checks are skipped.
}

func (c *Checker) checkLocal(ref Reference, r *report.Report) {
	_, absolute, leaked := resolveReference(ref.Source.Path, firstOf(splitFragment(ref.RawURL)))

	if ref.Type.isNavClass() && (absolute || leaked) {
		r.AddAt("NAV-010", fmt.Sprintf(
			"A %s must not address a location outside the publication: %q", ref.Type, ref.RawURL), ref.Source)
		return
	}
	if leaked {
		r.AddAt("RSC-026", fmt.Sprintf("URL %q leaks outside the container", ref.RawURL), ref.Source)
		return
	}

	res := c.reg.Resource(ref.Target)
	if res == nil {
		if c.arc.Has(ref.Target) {
			r.AddAt("RSC-008", fmt.Sprintf(
				"Referenced resource %q is not declared in the package manifest", ref.Target), ref.Source)
		} else if ref.Type == RefLink {
			// Missing link targets are a compatibility risk, not a
			// structural break: linked records are optional metadata.
			r.OverrideAt(report.Warning, "RSC-007", fmt.Sprintf(
				"Referenced resource %q could not be found in the EPUB", ref.Target), ref.Source)
		} else {
			r.AddAt("RSC-007", fmt.Sprintf(
				"Referenced resource %q could not be found in the EPUB", ref.Target), ref.Source)
		}
		return
	}

	if ref.Type.isHyperlinkClass() && !res.InSpine && !res.IsNav {
		r.AddAt("RSC-011", fmt.Sprintf(
			"Found a reference to a resource that is not a spine item: %q", ref.Target), ref.Source)
	}
	if ref.Type.isContentDocClass() && !isContentDocument(res.MimeType) && !res.HasCoreMediaTypeFallback {
		r.AddAt("RSC-010", fmt.Sprintf(
			"Reference target %q is not a content document and has no content document fallback", ref.Target),
			ref.Source)
	}
	if isForeignResourceRef(ref.Type) && !isCoreMediaType(res.MimeType) &&
		!res.HasCoreMediaTypeFallback && !ref.HasIntrinsicFallback {
		r.AddAt("RSC-032", fmt.Sprintf(
			"Foreign resource %q (%s) must have a fallback to a Core Media Type", ref.Target, res.MimeType),
			ref.Source)
	}

	if ref.Fragment != "" {
		c.checkFragment(ref, res, r)
	}
}

// isForeignResourceRef reports whether the edge embeds the target such that
// a foreign media type requires a fallback.
func isForeignResourceRef(t RefType) bool {
	switch t {
	case RefImage, RefAudio, RefVideo, RefGeneric:
		return true
	}
	return false
}

func (c *Checker) checkFragment(ref Reference, res *Resource, r *report.Report) {
	frag := ref.Fragment

	if ref.Type == RefStylesheet {
		r.AddAt("RSC-013", fmt.Sprintf(
			"Fragment identifier is used in a reference to a stylesheet: %q", ref.RawURL), ref.Source)
		return
	}
	targetIsSVG := baseMediaType(res.MimeType) == "image/svg+xml"
	if ref.Type == RefImage && !targetIsSVG {
		r.AddAt("RSC-009", fmt.Sprintf(
			"A fragment identifier should not be used with an image reference: %q", ref.RawURL), ref.Source)
		return
	}
	if isCFIFragment(frag) {
		return
	}
	if isSVGViewFragment(frag) {
		// SVG view fragments are only meaningful when the source
		// document is itself SVG.
		src := c.reg.Resource(ref.Source.Path)
		if src == nil || baseMediaType(src.MimeType) != "image/svg+xml" {
			r.AddAt("RSC-014", fmt.Sprintf(
				"Fragment identifier %q defines an incompatible resource type", frag), ref.Source)
		}
		return
	}
	if ref.Type.isHyperlinkClass() && c.reg.IsSVGSymbolID(ref.Target, frag) {
		r.AddAt("RSC-033", fmt.Sprintf(
			"Fragment identifier %q refers to an SVG 'symbol' element, which is not a valid hyperlink target", frag),
			ref.Source)
		return
	}
	if !c.reg.HasID(ref.Target, frag) {
		r.AddAt("RSC-012", fmt.Sprintf("Fragment identifier is not defined: %q", ref.RawURL), ref.Source)
	}
}

// checkUnreferencedResources reports manifest resources that are neither in
// the spine, structural (nav, cover image, NCX), nor the target of any
// publication-resource edge.
func (c *Checker) checkUnreferencedResources(r *report.Report) {
	referenced := make(map[string]bool)
	for _, ref := range c.refs {
		if ref.Type.isPublicationResourceClass() {
			referenced[ref.Target] = true
		}
	}
	for _, res := range c.reg.Resources() {
		if res.InSpine || res.IsNav || res.IsCoverImage || res.IsNCX {
			continue
		}
		if !referenced[res.URL] {
			r.Add("OPF-097", fmt.Sprintf(
				"Resource %q is declared in the manifest, but the publication contains no reference to it", res.URL))
		}
	}
}

// checkNonLinearReachability requires every non-linear spine item to be the
// target of at least one hyperlink-class edge. When the publication is
// scripted the defect is reported at lower confidence, since script-driven
// navigation cannot be statically verified.
func (c *Checker) checkNonLinearReachability(r *report.Report) {
	linked := make(map[string]bool)
	for _, ref := range c.refs {
		if ref.Type.isHyperlinkClass() {
			linked[ref.Target] = true
		}
	}
	for _, res := range c.reg.Resources() {
		if !res.InSpine || res.Linear || linked[res.URL] {
			continue
		}
		if c.scripted {
			r.Add("OPF-096b", fmt.Sprintf(
				"Non-linear content should be reachable, but found no hyperlink to %q; scripting may provide one at runtime",
				res.URL))
		} else {
			r.Add("OPF-096", fmt.Sprintf(
				"Non-linear content must be reachable, but found no hyperlink to %q", res.URL))
		}
	}
}

// checkReadingOrder verifies that toc nav links follow the spine order, and
// within a single spine item, document order of their anchor targets.
func (c *Checker) checkReadingOrder(r *report.Report) {
	lastSpinePosition := -1
	lastAnchorPosition := -1

	for _, ref := range c.refs {
		if ref.Type != RefNavTocLink {
			continue
		}
		res := c.reg.Resource(ref.Target)
		if res == nil || !res.InSpine {
			continue
		}
		pos := res.SpinePosition
		switch {
		case pos < lastSpinePosition:
			r.AddAt("NAV-011", fmt.Sprintf(
				"The 'toc' nav should be in reading order; link target %q is before the previous link's target",
				ref.RawURL), ref.Source)
			lastSpinePosition = pos
			lastAnchorPosition = -1
		case pos > lastSpinePosition:
			lastSpinePosition = pos
			lastAnchorPosition = -1
			if ref.Fragment != "" {
				lastAnchorPosition = c.reg.IDPosition(ref.Target, ref.Fragment)
			}
		default:
			if ref.Fragment == "" {
				continue
			}
			anchor := c.reg.IDPosition(ref.Target, ref.Fragment)
			if anchor < 0 {
				continue
			}
			if anchor < lastAnchorPosition {
				r.AddAt("NAV-011", fmt.Sprintf(
					"The 'toc' nav should be in reading order; link target %q is before the previous link's target",
					ref.RawURL), ref.Source)
			} else {
				lastAnchorPosition = anchor
			}
		}
	}
}

// checkFallbackChains walks every manifest item's fallback chain with a
// visited set bounded by the item count. A revisit is a circular-fallback
// defect; a hop to an unknown item id is a dangling fallback reference.
func checkFallbackChains(pkg *epub.Package, opfPath string, r *report.Report) {
	fallbacks := make(map[string]string)
	known := make(map[string]bool)
	lines := make(map[string]int)
	for _, item := range pkg.Manifest {
		if item.ID == "" {
			continue
		}
		known[item.ID] = true
		lines[item.ID] = item.Line
		if item.Fallback != "" {
			fallbacks[item.ID] = item.Fallback
		}
	}

	inCycle := make(map[string]bool)
	for _, item := range pkg.Manifest {
		fb, ok := fallbacks[item.ID]
		if !ok {
			continue
		}
		if !known[fb] {
			r.AddAt("OPF-040", fmt.Sprintf(
				"Fallback item could not be found: %q", fb),
				report.Loc(opfPath, item.Line, 0))
			continue
		}
		if inCycle[item.ID] {
			continue
		}
		visited := make(map[string]bool)
		var chain []string
		current := item.ID
		for {
			if inCycle[current] {
				// Chain feeds into a cycle that was already reported.
				break
			}
			if visited[current] {
				for _, id := range chain {
					inCycle[id] = true
				}
				r.AddAt("OPF-045", fmt.Sprintf(
					"Encountered circular reference in fallback chain starting at %q", item.ID),
					report.Loc(opfPath, lines[item.ID], 0))
				break
			}
			visited[current] = true
			chain = append(chain, current)
			next, ok := fallbacks[current]
			if !ok || !known[next] {
				break
			}
			current = next
		}
	}
}

func firstOf(a, _ string) string { return a }

// truncateURL shortens data URLs for message output.
func truncateURL(raw string) string {
	if len(raw) > 60 {
		return raw[:57] + "..."
	}
	return raw
}
