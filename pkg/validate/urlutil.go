package validate

import (
	"net/url"
	"path"
	"strings"
)

// urlKind classifies a reference URL before per-edge validation.
type urlKind int

const (
	urlLocal urlKind = iota
	urlRemote
	urlData
	urlFile
	urlMalformed
)

// classifyURL buckets a raw reference URL. Malformed URLs are detected
// before any other classification.
func classifyURL(raw string) urlKind {
	if isMalformedURL(raw) {
		return urlMalformed
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return urlData
	case strings.HasPrefix(lower, "file:"):
		return urlFile
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return urlRemote
	}
	return urlLocal
}

// isMalformedURL rejects URLs with embedded whitespace or angle brackets,
// and anything net/url cannot parse.
func isMalformedURL(raw string) bool {
	if strings.ContainsAny(raw, " \t\n\r<>") {
		return true
	}
	_, err := url.Parse(raw)
	return err != nil
}

// splitFragment splits a URL into its path part and fragment.
func splitFragment(raw string) (string, string) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

// resolveReference resolves a local-relative URL path against the document
// that contains it. The returned path is container-rooted. absolute is true
// when the URL path starts with '/'; leaked when the resolved path escapes
// the container root.
func resolveReference(sourcePath, urlPath string) (target string, absolute, leaked bool) {
	if decoded, err := url.PathUnescape(urlPath); err == nil {
		urlPath = decoded
	}
	if strings.HasPrefix(urlPath, "/") {
		cleaned := path.Clean(strings.TrimPrefix(urlPath, "/"))
		return cleaned, true, escapesRoot(cleaned)
	}
	joined := path.Join(path.Dir(sourcePath), urlPath)
	return joined, false, escapesRoot(joined)
}

func escapesRoot(cleaned string) bool {
	return cleaned == ".." || strings.HasPrefix(cleaned, "../")
}

// dataURLMediaType extracts the media type a data URL addresses.
// "data:;base64,..." and "data:,..." default to text/plain.
func dataURLMediaType(raw string) string {
	rest := raw[len("data:"):]
	end := strings.IndexAny(rest, ",;")
	if end < 0 {
		return ""
	}
	mt := strings.TrimSpace(rest[:end])
	if mt == "" {
		return "text/plain"
	}
	return strings.ToLower(mt)
}

// isSVGViewFragment reports whether a fragment is an SVG view specification.
func isSVGViewFragment(frag string) bool {
	return strings.HasPrefix(frag, "svgView(") || strings.HasPrefix(frag, "viewBox(")
}

// isCFIFragment reports whether a fragment is an EPUB canonical fragment
// identifier. CFI resolution is out of scope; such fragments are accepted.
func isCFIFragment(frag string) bool {
	return strings.HasPrefix(frag, "epubcfi(")
}
