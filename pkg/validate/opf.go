package validate

import (
	"fmt"
	"strings"

	"epublint/pkg/epub"
	"epublint/pkg/report"
)

// buildRegistry populates the resource registry from the package manifest.
// One node per manifest item; registration is idempotent so a duplicate
// href never replaces an earlier node.
func buildRegistry(pkg *epub.Package, opfPath string) *Registry {
	reg := NewRegistry()

	spinePos := make(map[string]int)
	spineLinear := make(map[string]bool)
	for i, ref := range pkg.Spine {
		if _, ok := spinePos[ref.IDRef]; !ok && ref.IDRef != "" {
			spinePos[ref.IDRef] = i
			spineLinear[ref.IDRef] = ref.IsLinear()
		}
	}

	for _, item := range pkg.Manifest {
		reg.RegisterFallback(item.ID, item.Fallback, item.MediaType)
	}

	for _, item := range pkg.Manifest {
		if item.Href == "" {
			continue
		}
		res := &Resource{
			URL:           manifestURL(opfPath, item.Href),
			MimeType:      item.MediaType,
			SpinePosition: -1,
			IsNav:         epub.HasProperty(item.Properties, "nav"),
			IsCoverImage:  epub.HasProperty(item.Properties, "cover-image"),
			IsNCX:         baseMediaType(item.MediaType) == "application/x-dtbncx+xml",
		}
		if pos, ok := spinePos[item.ID]; ok {
			res.InSpine = true
			res.SpinePosition = pos
			res.Linear = spineLinear[item.ID]
		}
		res.HasCoreMediaTypeFallback = reg.HasCoreMediaTypeFallback(item.ID)
		reg.RegisterResource(res)
	}

	return reg
}

// manifestURL canonicalizes a manifest href: remote resources keep their
// absolute URL, local ones resolve against the package document directory.
func manifestURL(opfPath, href string) string {
	href, _ = splitFragment(href)
	if epub.IsRemoteHref(href) {
		return href
	}
	return epub.ResolveHref(opfPath, href)
}

// checkManifest validates manifest items against the archive listing:
// declared resources must exist, and must not live under META-INF.
func checkManifest(arc *epub.Archive, pkg *epub.Package, opfPath string, r *report.Report) {
	for _, item := range pkg.Manifest {
		if item.Href == "" || epub.IsRemoteHref(item.Href) {
			continue
		}
		full := manifestURL(opfPath, item.Href)
		if !arc.Has(full) {
			r.AddAt("RSC-001", fmt.Sprintf(
				"Referenced resource %q was not found in the container", item.Href),
				report.Loc(opfPath, item.Line, 0))
		}
		if strings.HasPrefix(full, "META-INF/") {
			r.AddAt("PKG-025", fmt.Sprintf(
				"Publication resource must not be located in the META-INF directory: %q", full),
				report.Loc(opfPath, item.Line, 0))
		}
	}
}

// collectionRoles are the reserved collection role names.
var collectionRoles = map[string]bool{
	"dictionary":           true,
	"distributable-object": true,
	"index":                true,
	"index-group":          true,
	"manifest":             true,
	"preview":              true,
	"scriptable-component": true,
}

// checkCollections validates the package collection graph. Custom roles
// must be URLs; reserved-role collections constrain what their links may
// reference.
func checkCollections(pkg *epub.Package, opfPath string, reg *Registry, r *report.Report) {
	for _, col := range pkg.Collections {
		checkCollection(col, pkg, opfPath, reg, r)
	}
}

func checkCollection(col epub.Collection, pkg *epub.Package, opfPath string, reg *Registry, r *report.Report) {
	loc := report.Loc(opfPath, col.Line, 0)

	if col.Role == "" || (!collectionRoles[col.Role] && !strings.Contains(col.Role, "://")) {
		r.AddAt("OPF-091", fmt.Sprintf(
			"The collection role %q is not a reserved role name or a valid URL", col.Role), loc)
	}

	for _, link := range col.Links {
		linkLoc := report.Loc(opfPath, link.Line, 0)
		path, frag := splitFragment(link.Href)
		target := manifestURL(opfPath, path)

		if col.Role == "preview" && isCFIFragment(frag) {
			r.AddAt("OPF-095", fmt.Sprintf(
				"A link in a 'preview' collection must not use an EPUB canonical fragment identifier: %q",
				link.Href), linkLoc)
		}
		if target == opfPath {
			r.AddAt("OPF-093", "A collection must not include the package document itself", linkLoc)
			continue
		}
		res := reg.Resource(target)
		if res == nil {
			r.AddAt("OPF-092", fmt.Sprintf(
				"Collection link %q does not reference a resource declared in the manifest",
				link.Href), linkLoc)
			continue
		}
		if (col.Role == "index" || col.Role == "index-group") && baseMediaType(res.MimeType) != "application/xhtml+xml" {
			r.AddAt("OPF-094", fmt.Sprintf(
				"A resource in an 'index' collection must be an XHTML content document, but %q has type %q",
				link.Href, res.MimeType), linkLoc)
		}
	}

	for _, child := range col.Children {
		checkCollection(child, pkg, opfPath, reg, r)
	}
}
