package mipmap

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/transform"

	"github.com/EchoTools/ktexTools/pkg/dxt"
)

// Filter names a resampling kernel used to produce mip levels.
type Filter string

const (
	FilterBox        Filter = "box"
	FilterLinear     Filter = "linear"
	FilterLanczos    Filter = "lanczos"
	FilterCatmullRom Filter = "catmullrom"
	FilterMitchell   Filter = "mitchell"
	FilterNearest    Filter = "nearest"
)

// DefaultFilter is used when no filter is configured.
const DefaultFilter = FilterLanczos

var filters = map[Filter]transform.ResampleFilter{
	FilterBox:        transform.Box,
	FilterLinear:     transform.Linear,
	FilterLanczos:    transform.Lanczos,
	FilterCatmullRom: transform.CatmullRom,
	FilterMitchell:   transform.MitchellNetravali,
	FilterNearest:    transform.NearestNeighbor,
}

// ParseFilter resolves a filter name. The empty string selects DefaultFilter.
func ParseFilter(name string) (Filter, error) {
	if name == "" {
		return DefaultFilter, nil
	}
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := filters[f]; !ok {
		return "", fmt.Errorf("unknown resample filter %q", name)
	}
	return f, nil
}

// Resample scales img to exactly width x height.
func Resample(img image.Image, width, height int, f Filter) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return dxt.ToNRGBA(img)
	}
	kernel, ok := filters[f]
	if !ok {
		kernel = filters[DefaultFilter]
	}
	return dxt.ToNRGBA(transform.Resize(img, width, height, kernel))
}

// EncodeChain compresses every level of the chain. Each level is resampled
// independently from base; the compressed levels are concatenated in
// ascending order without padding.
func EncodeChain(enc *dxt.Encoder, base image.Image, levels []Level, f dxt.Format, filter Filter) ([]byte, error) {
	out := make([]byte, 0, TotalSize(levels))
	for _, l := range levels {
		var src image.Image = base
		if l.Index > 0 {
			src = Resample(base, l.Width, l.Height, filter)
		}
		data, err := enc.EncodeImage(src, f)
		if err != nil {
			return nil, fmt.Errorf("encode mip %d: %w", l.Index, err)
		}
		if len(data) != l.Size {
			return nil, fmt.Errorf("encode mip %d: expected %d bytes, got %d", l.Index, l.Size, len(data))
		}
		out = append(out, data...)
	}
	return out, nil
}
