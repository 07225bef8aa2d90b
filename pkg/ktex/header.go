// Package ktex reads and writes KTEX texture containers.
//
// A container is a header followed by block-compressed pixel data. Only the
// first 12 header bytes have a fixed layout:
//
//	0x00  [4]byte  magic "KTEX"
//	0x04  [2]byte  unused
//	0x06  uint8    version tag (1, 5 or 8)
//	0x07  uint8    pixel format (0=DXT1, 1=DXT3, 2=DXT5)
//	0x08  uint16   width
//	0x0A  uint16   height
//
// The rest of the header is version specific and passed through untouched.
// No field records the header length, so Detect infers it from the file
// length.
package ktex

import (
	"encoding/binary"
	"fmt"

	"github.com/EchoTools/ktexTools/pkg/dxt"
)

// Magic identifies a KTEX container.
const Magic = "KTEX"

// FixedHeaderSize is the length of the version-independent header prefix.
const FixedHeaderSize = 12

const (
	offsetVersion = 0x06
	offsetFormat  = 0x07
	offsetWidth   = 0x08
	offsetHeight  = 0x0A
)

// Known version tags.
const (
	VersionNoMipmaps      uint8 = 1
	VersionCompactMipmaps uint8 = 5
	VersionFullMipmaps    uint8 = 8
)

// Default header lengths per version tag.
const (
	HeaderSizeNoMipmaps      = 18
	HeaderSizeCompactMipmaps = 10
	HeaderSizeFullMipmaps    = 88
)

// MaxDimension is the largest width or height a header can carry.
const MaxDimension = 0xFFFF

// Header holds the fixed-offset header fields.
type Header struct {
	Version uint8
	Format  dxt.Format
	Width   int
	Height  int
}

// ParseHeader reads the fixed-offset fields from the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < FixedHeaderSize || string(data[0:4]) != Magic {
		return Header{}, &FormatError{Err: ErrInvalidMagic}
	}

	f := dxt.Format(data[offsetFormat])
	if !f.Valid() {
		return Header{}, formatErrorf(ErrUnsupportedFormat, "format id %d", data[offsetFormat])
	}

	return Header{
		Version: data[offsetVersion],
		Format:  f,
		Width:   int(binary.LittleEndian.Uint16(data[offsetWidth:])),
		Height:  int(binary.LittleEndian.Uint16(data[offsetHeight:])),
	}, nil
}

// String returns a human-readable representation.
func (h Header) String() string {
	return fmt.Sprintf("KTEX v%d %s %dx%d", h.Version, h.Format, h.Width, h.Height)
}

// PutDimensions overwrites the width and height fields of header in place.
func PutDimensions(header []byte, width, height int) error {
	if len(header) < FixedHeaderSize {
		return fmt.Errorf("header too short for dimensions: %d bytes", len(header))
	}
	if err := checkDimensions(width, height); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(header[offsetWidth:], uint16(width))
	binary.LittleEndian.PutUint16(header[offsetHeight:], uint16(height))
	return nil
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return formatErrorf(ErrInvalidDimensions, "%dx%d", width, height)
	}
	return nil
}

// DefaultHeader synthesizes a minimal header when no original header is
// available.
//
// Version 8 with mipmaps yields 88 bytes whose per-level table is left
// zeroed; engines that read that table may reject the result. Version 5 with
// mipmaps yields the 10-byte compact header, which only has room for the
// width. Anything else yields an 18-byte version 1 header.
func DefaultHeader(width, height int, f dxt.Format, version uint8, mipmaps bool) []byte {
	var header []byte
	switch {
	case mipmaps && version == VersionFullMipmaps:
		header = make([]byte, HeaderSizeFullMipmaps)
	case mipmaps && version == VersionCompactMipmaps:
		header = make([]byte, HeaderSizeCompactMipmaps)
	default:
		header = make([]byte, HeaderSizeNoMipmaps)
		version = VersionNoMipmaps
	}

	copy(header[0:4], Magic)
	header[offsetVersion] = version
	header[offsetFormat] = uint8(f)
	binary.LittleEndian.PutUint16(header[offsetWidth:], uint16(width))
	if len(header) >= FixedHeaderSize {
		binary.LittleEndian.PutUint16(header[offsetHeight:], uint16(height))
	}
	return header
}
