// Package dds converts between KTEX payloads and DirectDraw Surface files.
//
// Containers are exported with a legacy FourCC header (DXT1, DXT3, DXT5) so
// that common texture tools can open them. Parse also accepts the DX10
// extension header when it carries a BC1, BC2 or BC3 DXGI format.
package dds

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/EchoTools/ktexTools/pkg/dxt"
	"github.com/EchoTools/ktexTools/pkg/ktex"
	"github.com/EchoTools/ktexTools/pkg/mipmap"
)

// DDS header constants
const (
	DDS_MAGIC                    = 0x20534444 // "DDS "
	DDS_HEADER_SIZE              = 124
	DDS_HEADER_FLAGS_CAPS        = 0x1
	DDS_HEADER_FLAGS_HEIGHT      = 0x2
	DDS_HEADER_FLAGS_WIDTH       = 0x4
	DDS_HEADER_FLAGS_PIXELFORMAT = 0x1000
	DDS_HEADER_FLAGS_MIPMAPCOUNT = 0x20000
	DDS_HEADER_FLAGS_LINEARSIZE  = 0x80000

	DDS_SURFACE_FLAGS_COMPLEX = 0x8
	DDS_SURFACE_FLAGS_TEXTURE = 0x1000
	DDS_SURFACE_FLAGS_MIPMAP  = 0x400000

	DDS_PIXELFORMAT_SIZE = 32
	DDS_FOURCC           = 0x4

	FOURCC_DXT1 = 0x31545844 // "DXT1"
	FOURCC_DXT3 = 0x33545844 // "DXT3"
	FOURCC_DXT5 = 0x35545844 // "DXT5"
	FOURCC_DX10 = 0x30315844 // "DX10"
)

// DXGI_FORMAT values accepted in a DX10 extension header.
const (
	DXGI_FORMAT_BC1_UNORM      = 71
	DXGI_FORMAT_BC1_UNORM_SRGB = 72
	DXGI_FORMAT_BC2_UNORM      = 74
	DXGI_FORMAT_BC2_UNORM_SRGB = 75
	DXGI_FORMAT_BC3_UNORM      = 77
	DXGI_FORMAT_BC3_UNORM_SRGB = 78
)

const (
	// FileHeaderSize is the magic plus the legacy header.
	FileHeaderSize = 4 + DDS_HEADER_SIZE
	dx10HeaderSize = 20
)

var (
	ErrInvalidMagic      = errors.New("dds: invalid magic")
	ErrUnsupportedFormat = errors.New("dds: unsupported pixel format")
	ErrTruncated         = errors.New("dds: truncated data")
)

// Surface is a block-compressed texture with its mip levels stored
// back to back, largest first.
type Surface struct {
	Width    int
	Height   int
	MipCount int
	Format   dxt.Format
	Data     []byte
}

// String returns a human-readable representation.
func (s *Surface) String() string {
	return fmt.Sprintf("DDS: %dx%d, %d mips, format=%s, data=%d bytes",
		s.Width, s.Height, s.MipCount, s.Format, len(s.Data))
}

// Base returns the compressed bytes of the largest level.
func (s *Surface) Base() []byte {
	n := s.Format.SurfaceSize(s.Width, s.Height)
	if n > len(s.Data) {
		return s.Data
	}
	return s.Data[:n]
}

// Encode serializes s as a DDS file.
func Encode(s *Surface) ([]byte, error) {
	if !s.Format.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.Format)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}
	if base := s.Format.SurfaceSize(s.Width, s.Height); len(s.Data) < base {
		return nil, fmt.Errorf("%w: surface needs %d bytes, have %d", ErrTruncated, base, len(s.Data))
	}

	header := createHeader(s)
	out := make([]byte, len(header)+len(s.Data))
	copy(out, header)
	copy(out[len(header):], s.Data)
	return out, nil
}

// createHeader creates the magic and legacy DDS header.
func createHeader(s *Surface) []byte {
	header := make([]byte, FileHeaderSize)

	// Magic "DDS "
	binary.LittleEndian.PutUint32(header[0:4], DDS_MAGIC)
	offset := 4

	// dwSize
	binary.LittleEndian.PutUint32(header[offset:offset+4], DDS_HEADER_SIZE)
	offset += 4

	// dwFlags
	flags := uint32(DDS_HEADER_FLAGS_CAPS | DDS_HEADER_FLAGS_HEIGHT | DDS_HEADER_FLAGS_WIDTH |
		DDS_HEADER_FLAGS_PIXELFORMAT | DDS_HEADER_FLAGS_LINEARSIZE)
	if s.MipCount > 1 {
		flags |= DDS_HEADER_FLAGS_MIPMAPCOUNT
	}
	binary.LittleEndian.PutUint32(header[offset:offset+4], flags)
	offset += 4

	// dwHeight, dwWidth
	binary.LittleEndian.PutUint32(header[offset:offset+4], uint32(s.Height))
	offset += 4
	binary.LittleEndian.PutUint32(header[offset:offset+4], uint32(s.Width))
	offset += 4

	// dwPitchOrLinearSize
	binary.LittleEndian.PutUint32(header[offset:offset+4], uint32(s.Format.SurfaceSize(s.Width, s.Height)))
	offset += 4

	// dwDepth
	offset += 4

	// dwMipMapCount
	binary.LittleEndian.PutUint32(header[offset:offset+4], uint32(max(s.MipCount, 1)))
	offset += 4

	// dwReserved1[11]
	offset += 44

	// DDS_PIXELFORMAT
	binary.LittleEndian.PutUint32(header[offset:offset+4], DDS_PIXELFORMAT_SIZE)
	offset += 4
	binary.LittleEndian.PutUint32(header[offset:offset+4], DDS_FOURCC)
	offset += 4
	binary.LittleEndian.PutUint32(header[offset:offset+4], fourCC(s.Format))
	offset += 4

	// dwRGBBitCount and the four masks are unused for FourCC formats
	offset += 20

	// dwCaps
	caps := uint32(DDS_SURFACE_FLAGS_TEXTURE)
	if s.MipCount > 1 {
		caps |= DDS_SURFACE_FLAGS_COMPLEX | DDS_SURFACE_FLAGS_MIPMAP
	}
	binary.LittleEndian.PutUint32(header[offset:offset+4], caps)

	return header
}

func fourCC(f dxt.Format) uint32 {
	switch f {
	case dxt.DXT1:
		return FOURCC_DXT1
	case dxt.DXT3:
		return FOURCC_DXT3
	default:
		return FOURCC_DXT5
	}
}

// Parse reads a DDS file holding DXT1, DXT3 or DXT5 data.
func Parse(data []byte) (*Surface, error) {
	if len(data) < FileHeaderSize || binary.LittleEndian.Uint32(data[0:4]) != DDS_MAGIC {
		return nil, ErrInvalidMagic
	}
	if size := binary.LittleEndian.Uint32(data[4:8]); size != DDS_HEADER_SIZE {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidMagic, size)
	}

	s := &Surface{
		Height:   int(binary.LittleEndian.Uint32(data[12:16])),
		Width:    int(binary.LittleEndian.Uint32(data[16:20])),
		MipCount: int(binary.LittleEndian.Uint32(data[28:32])),
	}
	if s.MipCount == 0 {
		s.MipCount = 1
	}

	pfFlags := binary.LittleEndian.Uint32(data[80:84])
	if pfFlags&DDS_FOURCC == 0 {
		return nil, fmt.Errorf("%w: uncompressed surface", ErrUnsupportedFormat)
	}

	offset := FileHeaderSize
	switch cc := binary.LittleEndian.Uint32(data[84:88]); cc {
	case FOURCC_DXT1:
		s.Format = dxt.DXT1
	case FOURCC_DXT3:
		s.Format = dxt.DXT3
	case FOURCC_DXT5:
		s.Format = dxt.DXT5
	case FOURCC_DX10:
		if len(data) < FileHeaderSize+dx10HeaderSize {
			return nil, ErrTruncated
		}
		f, err := fromDXGI(binary.LittleEndian.Uint32(data[FileHeaderSize:]))
		if err != nil {
			return nil, err
		}
		s.Format = f
		offset += dx10HeaderSize
	default:
		return nil, fmt.Errorf("%w: fourcc %q", ErrUnsupportedFormat, string(data[84:88]))
	}

	if s.Width <= 0 || s.Height <= 0 || s.Width > ktex.MaxDimension || s.Height > ktex.MaxDimension {
		return nil, fmt.Errorf("invalid dimensions %dx%d", s.Width, s.Height)
	}

	s.Data = data[offset:]
	if base := s.Format.SurfaceSize(s.Width, s.Height); len(s.Data) < base {
		return nil, fmt.Errorf("%w: surface needs %d bytes, have %d", ErrTruncated, base, len(s.Data))
	}

	return s, nil
}

func fromDXGI(format uint32) (dxt.Format, error) {
	switch format {
	case DXGI_FORMAT_BC1_UNORM, DXGI_FORMAT_BC1_UNORM_SRGB:
		return dxt.DXT1, nil
	case DXGI_FORMAT_BC2_UNORM, DXGI_FORMAT_BC2_UNORM_SRGB:
		return dxt.DXT3, nil
	case DXGI_FORMAT_BC3_UNORM, DXGI_FORMAT_BC3_UNORM_SRGB:
		return dxt.DXT5, nil
	}
	return 0, fmt.Errorf("%w: dxgi format %d", ErrUnsupportedFormat, format)
}

// FromKTEX exports the payload of a detected container as a DDS file.
func FromKTEX(info *ktex.Info, data []byte) ([]byte, error) {
	payload, err := info.Payload(data)
	if err != nil {
		return nil, err
	}
	return Encode(&Surface{
		Width:    info.Width,
		Height:   info.Height,
		MipCount: info.MipCount(),
		Format:   info.Format,
		Data:     payload,
	})
}

// Levels returns the chain of levels stored in s, clamped to the data
// present.
func (s *Surface) Levels() []mipmap.Level {
	var levels []mipmap.Level
	offset, w, h := 0, s.Width, s.Height
	for i := 0; i < s.MipCount; i++ {
		size := s.Format.SurfaceSize(w, h)
		if offset+size > len(s.Data) {
			break
		}
		levels = append(levels, mipmap.Level{Index: i, Width: w, Height: h, Size: size, Offset: offset})
		offset += size
		w, h = max(w/2, 1), max(h/2, 1)
	}
	return levels
}
