package validate

import "strings"

// coreMediaTypes is the fixed set of media types reading systems must
// support natively; resources of these types need no fallback.
var coreMediaTypes = map[string]bool{
	// Images
	"image/gif":     true,
	"image/jpeg":    true,
	"image/png":     true,
	"image/svg+xml": true,
	"image/webp":    true,
	// Audio
	"audio/mpeg": true,
	"audio/mp4":  true,
	"audio/ogg":  true,
	// Style
	"text/css": true,
	// Fonts
	"font/ttf":                    true,
	"font/otf":                    true,
	"font/woff":                   true,
	"font/woff2":                  true,
	"application/font-sfnt":       true,
	"application/font-woff":       true,
	"application/vnd.ms-opentype": true,
	// Content documents and overlays
	"application/xhtml+xml": true,
	"application/smil+xml":  true,
	// Scripts
	"application/javascript": true,
	"application/ecmascript": true,
	"text/javascript":        true,
	// Legacy navigation
	"application/x-dtbncx+xml": true,
	// Pronunciation lexicons
	"application/pls+xml": true,
}

// contentDocumentTypes are the media types a spine item or hyperlink target
// may have without a fallback.
var contentDocumentTypes = map[string]bool{
	"application/xhtml+xml": true,
	"image/svg+xml":         true,
}

// isCoreMediaType reports whether mediaType is a Core Media Type.
// Parameters after ';' are ignored.
func isCoreMediaType(mediaType string) bool {
	return coreMediaTypes[baseMediaType(mediaType)]
}

// isContentDocument reports whether mediaType is a content document type.
func isContentDocument(mediaType string) bool {
	return contentDocumentTypes[baseMediaType(mediaType)]
}

// isRemoteAllowedType reports whether a resource of this media type may be
// hosted remotely (audio, video and fonts only).
func isRemoteAllowedType(mediaType string) bool {
	mt := baseMediaType(mediaType)
	if strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/") ||
		strings.HasPrefix(mt, "font/") {
		return true
	}
	switch mt {
	case "application/font-sfnt", "application/font-woff",
		"application/vnd.ms-opentype", "application/x-font-ttf",
		"application/x-font-otf", "application/x-font-truetype":
		return true
	}
	return false
}

func baseMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.TrimSpace(strings.ToLower(mediaType))
}
