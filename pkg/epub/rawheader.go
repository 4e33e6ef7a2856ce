package epub

import (
	"encoding/binary"

	"emperror.dev/errors"
)

// localHeaderSignature is the ZIP local file header magic ("PK\x03\x04").
const localHeaderSignature = 0x04034b50

// localHeaderFixedSize is the size of the fixed portion of a local file
// header; the filename and extra field follow it.
const localHeaderFixedSize = 30

// LocalFileHeader is the raw local file header of an archive entry, read
// directly from the archive bytes. General-purpose ZIP readers surface the
// central directory instead, which may disagree with the local header on
// exactly the fields conformance checking cares about (extra field length,
// storage method of the first entry).
type LocalFileHeader struct {
	CompressionMethod uint16
	CRC32             uint32
	FilenameLength    uint16
	ExtraFieldLength  uint16
	Filename          string
}

// ErrNotZip is returned when the buffer does not start with a local file
// header signature.
var ErrNotZip = errors.New("no ZIP local file header at offset 0")

// ParseFirstLocalHeader parses the local file header of the archive's first
// entry from the full archive byte buffer. Pure parse, no side effects.
//
// Layout (little-endian):
//
//	0  signature 0x04034b50
//	8  compression method (u16)
//	14 crc-32 (u32)
//	26 filename length (u16)
//	28 extra field length (u16)
//	30 filename bytes
func ParseFirstLocalHeader(data []byte) (*LocalFileHeader, error) {
	if len(data) < localHeaderFixedSize {
		return nil, ErrNotZip
	}
	if binary.LittleEndian.Uint32(data[0:4]) != localHeaderSignature {
		return nil, ErrNotZip
	}

	h := &LocalFileHeader{
		CompressionMethod: binary.LittleEndian.Uint16(data[8:10]),
		CRC32:             binary.LittleEndian.Uint32(data[14:18]),
		FilenameLength:    binary.LittleEndian.Uint16(data[26:28]),
		ExtraFieldLength:  binary.LittleEndian.Uint16(data[28:30]),
	}

	nameEnd := localHeaderFixedSize + int(h.FilenameLength)
	if nameEnd > len(data) {
		return nil, errors.New("local file header truncated")
	}
	h.Filename = string(data[localHeaderFixedSize:nameEnd])
	return h, nil
}
