package ktex

import (
	"fmt"
	"image"

	"github.com/EchoTools/ktexTools/pkg/dxt"
	"github.com/EchoTools/ktexTools/pkg/mipmap"
)

// ExtractOptions controls Extract.
type ExtractOptions struct {
	// AllLevels decodes every stored mip level, not just the base.
	AllLevels bool
}

// Result is the outcome of Extract.
type Result struct {
	Info  *Info
	Image *image.NRGBA
	// Levels holds every decoded level, base first. It is only populated
	// when AllLevels was requested and the container stores mipmaps.
	Levels  []*image.NRGBA
	Sidecar Sidecar
}

// Extract detects the container structure and decodes its base level.
func Extract(data []byte, opts ExtractOptions) (*Result, error) {
	info, err := Detect(data)
	if err != nil {
		return nil, err
	}

	res := &Result{Info: info, Sidecar: info.Sidecar()}

	count := 1
	if opts.AllLevels && info.HasMipmaps {
		count = info.MipCount()
		res.Levels = make([]*image.NRGBA, 0, count)
	}

	for idx := 0; idx < count; idx++ {
		l := info.Mipmaps[idx]
		raw, err := info.Level(data, idx)
		if err != nil {
			return nil, err
		}
		img, err := dxt.DecodeImage(raw, l.Width, l.Height, info.Format)
		if err != nil {
			return nil, formatErrorf(ErrTruncated, "mip %d: %v", idx, err)
		}
		if idx == 0 {
			res.Image = img
		}
		if res.Levels != nil {
			res.Levels = append(res.Levels, img)
		}
	}

	return res, nil
}

// RebuildOptions controls PlanRebuild and Rebuild. Every field is optional.
type RebuildOptions struct {
	// Sidecar supplies the original header and metadata, if any.
	Sidecar *Sidecar
	// Format forces the pixel format, overriding the sidecar.
	Format *dxt.Format
	// Mipmaps forces mipmap generation on or off, overriding the sidecar.
	Mipmaps *bool
	Encoder *dxt.Encoder
	Filter  mipmap.Filter
}

// Plan is a resolved rebuild: everything needed to assemble a container
// except the compressed payload.
type Plan struct {
	Width       int
	Height      int
	Format      dxt.Format
	Version     uint8
	Mipmaps     bool
	Header      []byte
	Levels      []mipmap.Level
	PayloadSize int
	// ReusedHeader is set when Header came from the sidecar.
	ReusedHeader bool
}

// PlanRebuild resolves format, version, mipmap policy and header for a
// width x height image.
//
// The format is the explicit override, then the sidecar's metadata, then
// the format byte of a header-only sidecar, then DXT5. The mipmap decision
// is the explicit override, then the sidecar's has_mipmaps, then the
// version of a header-only sidecar (v1 has none), then true. An original header of at least 12 bytes is reused
// with only its dimensions rewritten; otherwise DefaultHeader is used.
func PlanRebuild(width, height int, opts RebuildOptions) (*Plan, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	var meta *Metadata
	var header []byte
	if opts.Sidecar != nil {
		meta = opts.Sidecar.Meta
		header = opts.Sidecar.Header
	}
	headerOnly := meta == nil && len(header) >= FixedHeaderSize

	p := &Plan{Width: width, Height: height, Format: dxt.DXT5, Mipmaps: true}

	switch {
	case opts.Format != nil:
		if !opts.Format.Valid() {
			return nil, formatErrorf(ErrUnsupportedFormat, "format id %d", uint8(*opts.Format))
		}
		p.Format = *opts.Format
	case meta != nil:
		f, err := meta.PixelFormat()
		if err != nil {
			return nil, err
		}
		p.Format = f
	case headerOnly:
		f, err := dxt.FormatFromID(header[offsetFormat])
		if err != nil {
			return nil, formatErrorf(ErrUnsupportedFormat, "sidecar header: %v", err)
		}
		p.Format = f
	}

	switch {
	case opts.Mipmaps != nil:
		p.Mipmaps = *opts.Mipmaps
	case meta != nil:
		p.Mipmaps = meta.HasMipmaps
	case headerOnly:
		p.Mipmaps = header[offsetVersion] != VersionNoMipmaps
	}

	switch {
	case meta != nil && meta.Version != 0:
		p.Version = meta.Version
	case p.Mipmaps:
		p.Version = VersionFullMipmaps
	default:
		p.Version = VersionNoMipmaps
	}

	if len(header) >= FixedHeaderSize {
		p.Header = make([]byte, len(header))
		copy(p.Header, header)
		if err := PutDimensions(p.Header, width, height); err != nil {
			return nil, err
		}
		if opts.Format != nil {
			p.Header[offsetFormat] = uint8(p.Format)
		}
		p.Version = p.Header[offsetVersion]
		p.ReusedHeader = true
	} else {
		p.Header = DefaultHeader(width, height, p.Format, p.Version, p.Mipmaps)
		p.Version = p.Header[offsetVersion]
	}

	if p.Mipmaps {
		p.Levels, p.PayloadSize = mipmap.BuildChain(width, height, p.Format)
	} else {
		base := mipmap.BaseLevel(width, height, p.Format)
		p.Levels, p.PayloadSize = []mipmap.Level{base}, base.Size
	}

	return p, nil
}

// Assemble concatenates the header and payload into a container.
func (p *Plan) Assemble(payload []byte) ([]byte, error) {
	if len(payload) != p.PayloadSize {
		return nil, fmt.Errorf("payload is %d bytes, plan expects %d", len(payload), p.PayloadSize)
	}
	out := make([]byte, 0, len(p.Header)+len(payload))
	out = append(out, p.Header...)
	return append(out, payload...), nil
}

// Encode compresses img according to the plan and assembles the container.
func (p *Plan) Encode(img image.Image, enc *dxt.Encoder, filter mipmap.Filter) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() != p.Width || b.Dy() != p.Height {
		return nil, fmt.Errorf("image is %dx%d, plan expects %dx%d", b.Dx(), b.Dy(), p.Width, p.Height)
	}
	if enc == nil {
		enc = dxt.NewEncoder()
	}
	if filter == "" {
		filter = mipmap.DefaultFilter
	}
	payload, err := mipmap.EncodeChain(enc, img, p.Levels, p.Format, filter)
	if err != nil {
		return nil, err
	}
	return p.Assemble(payload)
}

// Rebuild encodes img into a new container.
func Rebuild(img image.Image, opts RebuildOptions) ([]byte, *Plan, error) {
	b := img.Bounds()
	p, err := PlanRebuild(b.Dx(), b.Dy(), opts)
	if err != nil {
		return nil, nil, err
	}
	data, err := p.Encode(img, opts.Encoder, opts.Filter)
	if err != nil {
		return nil, nil, err
	}
	return data, p, nil
}
