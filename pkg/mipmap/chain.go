// Package mipmap computes mip pyramids for block-compressed surfaces and
// produces the resampled level images used when re-encoding them.
//
// A chain starts at the base resolution and halves each axis (floor 1) per
// level. It ends with the first level whose width and height are both <= 4,
// so the smallest level always fits inside a single block.
package mipmap

import (
	"fmt"

	"github.com/EchoTools/ktexTools/pkg/dxt"
)

// Level describes one mip level inside the pixel-data region.
type Level struct {
	Index  int // 0 is the base level
	Width  int
	Height int
	Size   int // Compressed size in bytes
	Offset int // Byte offset from the start of the pixel data
}

// End returns the offset one past the last byte of the level.
func (l Level) End() int {
	return l.Offset + l.Size
}

// String returns a human-readable representation.
func (l Level) String() string {
	return fmt.Sprintf("level %d: %dx%d (%d bytes @ %d)", l.Index, l.Width, l.Height, l.Size, l.Offset)
}

// BuildChain returns every level for a width x height surface in format f
// along with the total compressed size. Non-positive dimensions produce an
// empty chain.
func BuildChain(width, height int, f dxt.Format) ([]Level, int) {
	var levels []Level
	total := 0
	w, h := width, height

	for index := 0; w >= 1 && h >= 1; index++ {
		size := f.SurfaceSize(w, h)
		levels = append(levels, Level{
			Index:  index,
			Width:  w,
			Height: h,
			Size:   size,
			Offset: total,
		})
		total += size

		if w <= dxt.BlockDim && h <= dxt.BlockDim {
			break
		}
		w = max(1, w/2)
		h = max(1, h/2)
	}

	return levels, total
}

// BaseLevel returns the single-level chain used by containers without
// mipmaps.
func BaseLevel(width, height int, f dxt.Format) Level {
	return Level{
		Index:  0,
		Width:  width,
		Height: height,
		Size:   f.SurfaceSize(width, height),
	}
}

// TotalSize sums the sizes of levels.
func TotalSize(levels []Level) int {
	total := 0
	for _, l := range levels {
		total += l.Size
	}
	return total
}
