package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"net/url"
	"os"
	"path"
	"unicode/utf8"

	"emperror.dev/errors"
)

// PackageMediaType is the media type of the package document rootfile.
const PackageMediaType = "application/oebps-package+xml"

// MimetypeContent is the exact required content of the mimetype entry.
const MimetypeContent = "application/epub+zip"

// maxEntrySize caps the decompressed size of a single entry so a forged
// central directory cannot balloon memory.
const maxEntrySize = 256 * 1024 * 1024

// Open reads the archive at path fully into memory.
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "reading epub")
	}
	a, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}
	a.Path = path
	return a, nil
}

// OpenBytes decodes an archive from raw bytes. Entry order follows the
// central directory, which mirrors archive order for well-formed files.
func OpenBytes(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.WithMessage(err, "opening zip container")
	}

	a := &Archive{
		Data:  data,
		files: make(map[string]*Entry),
	}

	for i, f := range zr.File {
		e := &Entry{
			Name:    f.Name,
			Method:  f.Method,
			Ordinal: i,
			NonUTF8: f.NonUTF8 || !utf8.ValidString(f.Name),
		}
		if !e.IsDir() {
			content, err := readEntry(f)
			if err != nil {
				return nil, errors.WithMessagef(err, "reading entry %q", f.Name)
			}
			e.Data = content
		}
		a.Entries = append(a.Entries, e)
		// First entry wins; duplicates are a container defect reported later.
		if _, ok := a.files[e.Name]; !ok {
			a.files[e.Name] = e
		}
	}

	return a, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, errors.Errorf("entry exceeds %d bytes", int64(maxEntrySize))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, errors.Errorf("entry exceeds %d bytes", int64(maxEntrySize))
	}
	return data, nil
}

// OPFDir returns the directory containing the package document.
func OPFDir(opfPath string) string {
	return path.Dir(opfPath)
}

// ResolveHref resolves a manifest href against the package document path.
// Hrefs are percent-decoded because ZIP entry names use decoded forms while
// OPF hrefs are IRI-encoded.
func ResolveHref(opfPath, href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	dir := OPFDir(opfPath)
	if dir == "." {
		return path.Clean(href)
	}
	return path.Clean(dir + "/" + href)
}
