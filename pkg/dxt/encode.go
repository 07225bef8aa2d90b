package dxt

import (
	"encoding/binary"
	"fmt"
)

// Perceptual channel weights (ITU-R BT.601 luma).
var (
	PerceptualWeights = [3]float64{0.299, 0.587, 0.114}
	UniformWeights    = [3]float64{1, 1, 1}
)

// Encoder compresses pixel blocks. An Encoder holds only read-only settings
// and is safe for concurrent use.
type Encoder struct {
	weights [3]float64
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithPerceptual selects perceptually weighted (true) or unweighted (false)
// color distance for index selection.
func WithPerceptual(enabled bool) EncoderOption {
	return func(e *Encoder) {
		if enabled {
			e.weights = PerceptualWeights
		} else {
			e.weights = UniformWeights
		}
	}
}

// WithWeights sets custom RGB distance weights.
func WithWeights(r, g, b float64) EncoderOption {
	return func(e *Encoder) {
		e.weights = [3]float64{r, g, b}
	}
}

// NewEncoder creates an encoder. Perceptual weighting is on by default.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{weights: PerceptualWeights}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the RGB distance weights in use.
func (e *Encoder) Weights() [3]float64 {
	return e.weights
}

// EncodeBlock compresses 16 pixels into a new f.BlockSize() byte slice.
func (e *Encoder) EncodeBlock(blk *Block, f Format) ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}
	dst := make([]byte, f.BlockSize())
	e.encodeBlockTo(dst, blk, f)
	return dst, nil
}

// encodeBlockTo writes the compressed block into dst, which must be exactly
// f.BlockSize() bytes and f must be valid.
func (e *Encoder) encodeBlockTo(dst []byte, blk *Block, f Format) {
	switch f {
	case DXT1:
		e.encodeColor(dst[0:8], blk, true)
	case DXT3:
		var alphaBits uint64
		for i, px := range blk {
			alphaBits |= uint64(px.A/17) << (4 * i)
		}
		binary.LittleEndian.PutUint64(dst[0:8], alphaBits)
		e.encodeColor(dst[8:16], blk, false)
	case DXT5:
		encodeAlpha(dst[0:8], blk)
		e.encodeColor(dst[8:16], blk, false)
	}
}

// encodeColor writes an 8-byte color block. Endpoints are the corners of the
// per-channel bounding box of the block's colors.
func (e *Encoder) encodeColor(dst []byte, blk *Block, dxt1 bool) {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}
	for _, px := range blk {
		ch := [3]uint8{px.R, px.G, px.B}
		for c := 0; c < 3; c++ {
			lo[c] = min(lo[c], ch[c])
			hi[c] = max(hi[c], ch[c])
		}
	}
	if lo == hi {
		for c := 0; c < 3; c++ {
			if lo[c] < 255 {
				lo[c]++
			}
		}
	}

	c0 := RGBToRGB565(hi[0], hi[1], hi[2])
	c1 := RGBToRGB565(lo[0], lo[1], lo[2])
	if c0 < c1 {
		c0, c1 = c1, c0
	}
	if dxt1 && c0 == c1 {
		// DXT1 reads c0 <= c1 as three-color mode with transparency.
		if c0 == 0xFFFF {
			c1--
		} else {
			c0++
		}
	}

	binary.LittleEndian.PutUint16(dst[0:2], c0)
	binary.LittleEndian.PutUint16(dst[2:4], c1)

	// Indices are chosen against the palette the decoder will rebuild from
	// the quantized endpoints.
	p := palette(c0, c1, true)
	var indices uint32
	for i, px := range blk {
		best, bestDist := 0, e.distance(px.R, px.G, px.B, p[0])
		for j := 1; j < 4; j++ {
			if d := e.distance(px.R, px.G, px.B, p[j]); d < bestDist {
				best, bestDist = j, d
			}
		}
		indices |= uint32(best) << (2 * i)
	}
	binary.LittleEndian.PutUint32(dst[4:8], indices)
}

func (e *Encoder) distance(r, g, b uint8, c [4]uint8) float64 {
	dr := float64(int(r) - int(c[0]))
	dg := float64(int(g) - int(c[1]))
	db := float64(int(b) - int(c[2]))
	return e.weights[0]*dr*dr + e.weights[1]*dg*dg + e.weights[2]*db*db
}

// encodeAlpha writes the 8-byte DXT5 alpha block.
func encodeAlpha(dst []byte, blk *Block) {
	a0, a1 := uint8(0), uint8(255)
	for _, px := range blk {
		a0 = max(a0, px.A)
		a1 = min(a1, px.A)
	}
	if a0 == a1 && a1 < 255 {
		a0 = a1 + 1
	}
	dst[0], dst[1] = a0, a1

	table := AlphaTable(a0, a1)
	var bits uint64
	for i, px := range blk {
		best, bestDist := 0, absDiff(px.A, table[0])
		for j := 1; j < 8; j++ {
			if d := absDiff(px.A, table[j]); d < bestDist {
				best, bestDist = j, d
			}
		}
		bits |= uint64(best) << (3 * i)
	}
	putUint48(dst[2:8], bits)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
