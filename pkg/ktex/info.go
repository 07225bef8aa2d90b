package ktex

import (
	"fmt"
	"strings"

	"github.com/EchoTools/ktexTools/pkg/dxt"
	"github.com/EchoTools/ktexTools/pkg/mipmap"
)

// Info describes a detected container. It holds a copy of the raw header and
// never references the input buffer.
type Info struct {
	Version      uint8
	Format       dxt.Format
	Width        int
	Height       int
	HeaderLength int
	HasMipmaps   bool
	Mipmaps      []mipmap.Level
	RawHeader    []byte
	Layout       Layout
	// Rule names the detection rule that resolved Layout.
	Rule     string
	FileSize int
}

// Detect infers the structure of the container in data.
func Detect(data []byte) (*Info, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	layout, rule, err := ResolveLayout(h, len(data))
	if err != nil {
		return nil, err
	}

	hl := layout.HeaderLength()
	if hl > len(data) {
		return nil, formatErrorf(ErrTruncated, "header length %d exceeds file size %d", hl, len(data))
	}

	raw := make([]byte, hl)
	copy(raw, data[:hl])

	return &Info{
		Version:      h.Version,
		Format:       h.Format,
		Width:        h.Width,
		Height:       h.Height,
		HeaderLength: hl,
		HasMipmaps:   layout.HasMipmaps(),
		Mipmaps:      layout.Levels(),
		RawHeader:    raw,
		Layout:       layout,
		Rule:         rule,
		FileSize:     len(data),
	}, nil
}

// MipCount returns the number of stored levels.
func (i *Info) MipCount() int {
	return len(i.Mipmaps)
}

// PayloadSize returns the number of pixel-data bytes the layout implies.
func (i *Info) PayloadSize() int {
	return mipmap.TotalSize(i.Mipmaps)
}

// Trailing returns how many bytes follow the implied payload. A negative
// value means the file is short.
func (i *Info) Trailing() int {
	return i.FileSize - expectedFileSize(i.Layout)
}

// Level returns the compressed bytes of mip level idx from data.
func (i *Info) Level(data []byte, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(i.Mipmaps) {
		return nil, fmt.Errorf("mip level %d out of range [0,%d)", idx, len(i.Mipmaps))
	}
	l := i.Mipmaps[idx]
	start, end := i.HeaderLength+l.Offset, i.HeaderLength+l.End()
	if end > len(data) {
		return nil, formatErrorf(ErrTruncated, "mip %d needs %d bytes, file has %d", idx, end, len(data))
	}
	return data[start:end], nil
}

// Payload returns every stored level from data, header excluded.
func (i *Info) Payload(data []byte) ([]byte, error) {
	end := i.HeaderLength + i.PayloadSize()
	if end > len(data) {
		return nil, formatErrorf(ErrTruncated, "payload needs %d bytes, file has %d", end, len(data))
	}
	return data[i.HeaderLength:end], nil
}

// Sidecar returns the metadata and raw header to persist next to an
// extracted image.
func (i *Info) Sidecar() Sidecar {
	raw := make([]byte, len(i.RawHeader))
	copy(raw, i.RawHeader)
	return Sidecar{
		Meta: &Metadata{
			Version:     i.Version,
			Format:      i.Format.String(),
			FormatID:    uint8(i.Format),
			Width:       i.Width,
			Height:      i.Height,
			HeaderSize:  i.HeaderLength,
			HasMipmaps:  i.HasMipmaps,
			MipmapCount: i.MipCount(),
		},
		Header: raw,
	}
}

func (i *Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "KTEX v%d %s %dx%d\n", i.Version, i.Format, i.Width, i.Height)
	fmt.Fprintf(&sb, "  header: %d bytes (%s)\n", i.HeaderLength, i.Rule)
	fmt.Fprintf(&sb, "  payload: %d bytes, file: %d bytes\n", i.PayloadSize(), i.FileSize)
	if i.HasMipmaps {
		fmt.Fprintf(&sb, "  mipmaps: %d\n", i.MipCount())
		for _, l := range i.Mipmaps {
			fmt.Fprintf(&sb, "    %s\n", l)
		}
	} else {
		sb.WriteString("  mipmaps: none\n")
	}
	return sb.String()
}

// Metadata is the JSON-serializable description of an extracted container.
type Metadata struct {
	Version     uint8  `json:"version"`
	Format      string `json:"format"`
	FormatID    uint8  `json:"format_id"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	HeaderSize  int    `json:"header_size"`
	HasMipmaps  bool   `json:"has_mipmaps"`
	MipmapCount int    `json:"mipmap_count"`
}

// PixelFormat returns the format recorded in m.
func (m *Metadata) PixelFormat() (dxt.Format, error) {
	f, err := dxt.FormatFromID(m.FormatID)
	if err != nil {
		return 0, formatErrorf(ErrUnsupportedFormat, "metadata format id %d", m.FormatID)
	}
	return f, nil
}

// Sidecar pairs container metadata with the raw header bytes. Either part
// may be absent.
type Sidecar struct {
	Meta   *Metadata
	Header []byte
}

// Empty reports whether s carries nothing usable.
func (s *Sidecar) Empty() bool {
	return s == nil || (s.Meta == nil && len(s.Header) == 0)
}
