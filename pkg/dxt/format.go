// Package dxt implements S3TC block compression (DXT1, DXT3, DXT5) for
// 4x4 pixel tiles.
//
// Block layouts:
//   - DXT1: 8 bytes. Two RGB565 endpoints followed by 16 2-bit color indices.
//   - DXT3: 16 bytes. 16 explicit 4-bit alpha values, then a DXT1 color block.
//   - DXT5: 16 bytes. Two alpha endpoints, 16 3-bit alpha indices, then a
//     DXT1 color block.
//
// Pixels inside a block are stored row-major: index 0 is the top-left pixel
// and index 15 the bottom-right one.
package dxt

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a block compression format. The numeric values match the
// pixel-format id stored in KTEX headers.
type Format uint8

const (
	DXT1 Format = 0 // RGB + 1-bit alpha, 8 bytes per block
	DXT3 Format = 1 // RGB + explicit 4-bit alpha, 16 bytes per block
	DXT5 Format = 2 // RGB + interpolated alpha, 16 bytes per block
)

// BlockDim is the edge length of a compressed block in pixels.
const BlockDim = 4

// PixelsPerBlock is the number of pixels covered by one block.
const PixelsPerBlock = BlockDim * BlockDim

var (
	ErrUnknownFormat = errors.New("dxt: unknown format")
	ErrShortBlock    = errors.New("dxt: block data too short")
)

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f <= DXT5
}

// BlockSize returns the number of bytes a single block occupies.
func (f Format) BlockSize() int {
	if f == DXT1 {
		return 8
	}
	return 16
}

// String returns the canonical format name.
func (f Format) String() string {
	switch f {
	case DXT1:
		return "DXT1"
	case DXT3:
		return "DXT3"
	case DXT5:
		return "DXT5"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(f))
	}
}

// ParseFormat accepts a canonical name ("DXT5"), its BC alias ("BC3") or a
// numeric id ("2").
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DXT1", "BC1", "0":
		return DXT1, nil
	case "DXT3", "BC2", "1":
		return DXT3, nil
	case "DXT5", "BC3", "2":
		return DXT5, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromID converts a header pixel-format id into a Format.
func FormatFromID(id uint8) (Format, error) {
	f := Format(id)
	if !f.Valid() {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownFormat, id)
	}
	return f, nil
}

// BlocksFor returns the block grid covering a width x height surface. Each
// axis covers at least one block.
func BlocksFor(width, height int) (bw, bh int) {
	bw = (width + BlockDim - 1) / BlockDim
	bh = (height + BlockDim - 1) / BlockDim
	if bw < 1 {
		bw = 1
	}
	if bh < 1 {
		bh = 1
	}
	return bw, bh
}

// SurfaceSize returns the compressed size in bytes of a single
// width x height surface.
func (f Format) SurfaceSize(width, height int) int {
	bw, bh := BlocksFor(width, height)
	return bw * bh * f.BlockSize()
}
