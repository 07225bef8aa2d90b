package dxt

import (
	"fmt"
	"image"
	"image/draw"
)

// DecodeImage decompresses a width x height surface stored as a row-major
// grid of blocks. Pixels of edge blocks that fall outside the surface are
// discarded.
func DecodeImage(data []byte, width, height int, f Format) (*image.NRGBA, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("dxt: invalid surface size %dx%d", width, height)
	}
	if need := f.SurfaceSize(width, height); len(data) < need {
		return nil, fmt.Errorf("%w: %dx%d %s surface needs %d bytes, got %d",
			ErrShortBlock, width, height, f, need, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	bw, bh := BlocksFor(width, height)
	bs := f.BlockSize()

	offset := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			blk, err := DecodeBlock(data[offset:offset+bs], f)
			if err != nil {
				return nil, fmt.Errorf("block (%d,%d): %w", bx, by, err)
			}
			offset += bs

			for py := 0; py < BlockDim; py++ {
				y := by*BlockDim + py
				if y >= height {
					break
				}
				for px := 0; px < BlockDim; px++ {
					x := bx*BlockDim + px
					if x >= width {
						break
					}
					c := blk[py*BlockDim+px]
					o := img.PixOffset(x, y)
					img.Pix[o+0] = c.R
					img.Pix[o+1] = c.G
					img.Pix[o+2] = c.B
					img.Pix[o+3] = c.A
				}
			}
		}
	}

	return img, nil
}

// EncodeImage compresses img into a row-major grid of blocks. Edge blocks
// sample beyond the image by clamping to the last row and column.
func (e *Encoder) EncodeImage(img image.Image, f Format) ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}
	src := ToNRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("dxt: empty image")
	}

	bw, bh := BlocksFor(width, height)
	bs := f.BlockSize()
	out := make([]byte, bw*bh*bs)

	var blk Block
	offset := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			gatherBlock(&blk, src, bx, by)
			e.encodeBlockTo(out[offset:offset+bs], &blk, f)
			offset += bs
		}
	}

	return out, nil
}

func gatherBlock(blk *Block, src *image.NRGBA, bx, by int) {
	width, height := src.Rect.Dx(), src.Rect.Dy()
	for py := 0; py < BlockDim; py++ {
		y := min(by*BlockDim+py, height-1)
		for px := 0; px < BlockDim; px++ {
			x := min(bx*BlockDim+px, width-1)
			o := y*src.Stride + x*4
			blk[py*BlockDim+px].R = src.Pix[o+0]
			blk[py*BlockDim+px].G = src.Pix[o+1]
			blk[py*BlockDim+px].B = src.Pix[o+2]
			blk[py*BlockDim+px].A = src.Pix[o+3]
		}
	}
}

// ToNRGBA returns img as a zero-origin *image.NRGBA, converting when needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Rect, img, b.Min, draw.Src)
	return n
}
