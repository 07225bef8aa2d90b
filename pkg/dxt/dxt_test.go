package dxt

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		format    Format
		name      string
		blockSize int
	}{
		{DXT1, "DXT1", 8},
		{DXT3, "DXT3", 16},
		{DXT5, "DXT5", 16},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.name {
			t.Errorf("Format %d: expected name %s, got %s", tt.format, tt.name, got)
		}
		if got := tt.format.BlockSize(); got != tt.blockSize {
			t.Errorf("%s: expected block size %d, got %d", tt.name, tt.blockSize, got)
		}
		parsed, err := ParseFormat(tt.name)
		if err != nil || parsed != tt.format {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.name, parsed, err)
		}
	}

	if _, err := FormatFromID(3); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat for id 3, got %v", err)
	}
	if got := Format(7).String(); got != "UNKNOWN(7)" {
		t.Errorf("Expected UNKNOWN(7), got %s", got)
	}
}

func TestSurfaceSize(t *testing.T) {
	tests := []struct {
		width, height int
		format        Format
		expected      int
	}{
		{8, 8, DXT5, 4 * 16},
		{8, 8, DXT1, 4 * 8},
		{5, 3, DXT1, 2 * 1 * 8},
		{1, 1, DXT3, 16},
		{513, 513, DXT5, 129 * 129 * 16},
	}

	for _, tt := range tests {
		if got := tt.format.SurfaceSize(tt.width, tt.height); got != tt.expected {
			t.Errorf("%dx%d %s: expected %d, got %d", tt.width, tt.height, tt.format, tt.expected, got)
		}
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 3 {
		for g := 0; g < 256; g += 5 {
			for b := 0; b < 256; b += 7 {
				rr, gg, bb := RGB565ToRGB(RGBToRGB565(uint8(r), uint8(g), uint8(b)))
				if d := absDiff(uint8(r), rr); d > 4 {
					t.Fatalf("R %d -> %d: error %d exceeds 4", r, rr, d)
				}
				if d := absDiff(uint8(g), gg); d > 2 {
					t.Fatalf("G %d -> %d: error %d exceeds 2", g, gg, d)
				}
				if d := absDiff(uint8(b), bb); d > 4 {
					t.Fatalf("B %d -> %d: error %d exceeds 4", b, bb, d)
				}
			}
		}
	}
}

func TestRGB565Expansion(t *testing.T) {
	tests := []struct {
		code    uint16
		r, g, b uint8
	}{
		{0x0000, 0, 0, 0},
		{0xFFFF, 255, 255, 255},
		{0xF800, 255, 0, 0},
		{0x07E0, 0, 255, 0},
		{0x001F, 0, 0, 255},
	}

	for _, tt := range tests {
		r, g, b := RGB565ToRGB(tt.code)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("0x%04X: expected (%d,%d,%d), got (%d,%d,%d)", tt.code, tt.r, tt.g, tt.b, r, g, b)
		}
	}
}

func TestAlphaTable(t *testing.T) {
	for a0 := 0; a0 < 256; a0++ {
		for a1 := 0; a1 < 256; a1++ {
			table := AlphaTable(uint8(a0), uint8(a1))
			if table[0] != uint8(a0) || table[1] != uint8(a1) {
				t.Fatalf("(%d,%d): endpoints not preserved: %v", a0, a1, table)
			}
			if a0 > a1 {
				// a0, interpolants, a1 in ramp order
				ramp := []uint8{table[0], table[2], table[3], table[4], table[5], table[6], table[7], table[1]}
				for i := 1; i < len(ramp); i++ {
					if ramp[i] > ramp[i-1] {
						t.Fatalf("(%d,%d): ramp not non-increasing at %d: %v", a0, a1, i, table)
					}
				}
			} else if table[6] != 0 || table[7] != 255 {
				t.Fatalf("(%d,%d): expected sentinels 0 and 255, got %v", a0, a1, table)
			}
		}
	}

	t.Run("KnownValues", func(t *testing.T) {
		got := AlphaTable(255, 0)
		want := [8]uint8{255, 0, 218, 182, 145, 109, 72, 36}
		if got != want {
			t.Errorf("Expected %v, got %v", want, got)
		}
		got = AlphaTable(0, 255)
		want = [8]uint8{0, 255, 51, 102, 153, 204, 0, 255}
		if got != want {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}

func TestDecodeBlockDXT1(t *testing.T) {
	t.Run("FourColor", func(t *testing.T) {
		block := make([]byte, 8)
		binary.LittleEndian.PutUint16(block[0:], 0xF800) // red
		binary.LittleEndian.PutUint16(block[2:], 0x001F) // blue
		// pixel i uses index i%4
		var bits uint32
		for i := 0; i < 16; i++ {
			bits |= uint32(i%4) << (2 * i)
		}
		binary.LittleEndian.PutUint32(block[4:], bits)

		blk, err := DecodeBlock(block, DXT1)
		if err != nil {
			t.Fatalf("DecodeBlock: %v", err)
		}

		want := []color.NRGBA{
			{255, 0, 0, 255},
			{0, 0, 255, 255},
			{170, 0, 85, 255},
			{85, 0, 170, 255},
		}
		for i, px := range blk {
			if px != want[i%4] {
				t.Errorf("pixel %d: expected %v, got %v", i, want[i%4], px)
			}
		}
	})

	t.Run("ThreeColorTransparent", func(t *testing.T) {
		block := make([]byte, 8)
		binary.LittleEndian.PutUint16(block[0:], 0x001F)
		binary.LittleEndian.PutUint16(block[2:], 0xF800)
		binary.LittleEndian.PutUint32(block[4:], 0xFFFFFFFF) // all index 3

		blk, err := DecodeBlock(block, DXT1)
		if err != nil {
			t.Fatalf("DecodeBlock: %v", err)
		}
		for i, px := range blk {
			if px != (color.NRGBA{}) {
				t.Errorf("pixel %d: expected transparent black, got %v", i, px)
			}
		}
	})
}

func TestDecodeBlockDXT3(t *testing.T) {
	block := make([]byte, 16)
	var alphaBits uint64
	for i := 0; i < 16; i++ {
		alphaBits |= uint64(i) << (4 * i)
	}
	binary.LittleEndian.PutUint64(block[0:], alphaBits)
	// c0 <= c1 must still decode four colors
	binary.LittleEndian.PutUint16(block[8:], 0x0000)
	binary.LittleEndian.PutUint16(block[10:], 0xFFFF)
	binary.LittleEndian.PutUint32(block[12:], 0xFFFFFFFF)

	blk, err := DecodeBlock(block, DXT3)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	for i, px := range blk {
		if px.A != uint8(i*17) {
			t.Errorf("pixel %d: expected alpha %d, got %d", i, i*17, px.A)
		}
		if px.R != 170 || px.G != 170 || px.B != 170 {
			t.Errorf("pixel %d: expected gray 170, got %v", i, px)
		}
	}
}

func TestDecodeBlockDXT5(t *testing.T) {
	block := make([]byte, 16)
	block[0], block[1] = 255, 0
	var alphaBits uint64
	for i := 0; i < 16; i++ {
		alphaBits |= uint64(i%8) << (3 * i)
	}
	putUint48(block[2:8], alphaBits)
	binary.LittleEndian.PutUint16(block[8:], 0x07E0)
	binary.LittleEndian.PutUint16(block[10:], 0x07E0)

	blk, err := DecodeBlock(block, DXT5)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	table := AlphaTable(255, 0)
	for i, px := range blk {
		if px.A != table[i%8] {
			t.Errorf("pixel %d: expected alpha %d, got %d", i, table[i%8], px.A)
		}
		if px.G != 255 || px.R != 0 || px.B != 0 {
			t.Errorf("pixel %d: expected green, got %v", i, px)
		}
	}
}

func TestDecodeBlockShort(t *testing.T) {
	for _, f := range []Format{DXT1, DXT3, DXT5} {
		_, err := DecodeBlock(make([]byte, f.BlockSize()-1), f)
		if !errors.Is(err, ErrShortBlock) {
			t.Errorf("%s: expected ErrShortBlock, got %v", f, err)
		}
	}
}

func TestEncodeSolidBlock(t *testing.T) {
	colors := []color.NRGBA{
		{100, 150, 200, 255},
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{13, 77, 240, 255},
	}
	enc := NewEncoder()

	for _, f := range []Format{DXT1, DXT3, DXT5} {
		for _, c := range colors {
			var blk Block
			for i := range blk {
				blk[i] = c
			}
			data, err := enc.EncodeBlock(&blk, f)
			if err != nil {
				t.Fatalf("EncodeBlock: %v", err)
			}
			if len(data) != f.BlockSize() {
				t.Fatalf("%s: expected %d bytes, got %d", f, f.BlockSize(), len(data))
			}
			out, err := DecodeBlock(data, f)
			if err != nil {
				t.Fatalf("DecodeBlock: %v", err)
			}
			for i, px := range out {
				if px.A != 255 {
					t.Errorf("%s %v pixel %d: expected alpha 255, got %d", f, c, i, px.A)
				}
				if absDiff(px.R, c.R) > 4 || absDiff(px.G, c.G) > 2 || absDiff(px.B, c.B) > 4 {
					t.Errorf("%s %v pixel %d: decoded %v outside quantization tolerance", f, c, i, px)
				}
			}
		}
	}
}

func TestEncodeDXT1EndpointOrder(t *testing.T) {
	enc := NewEncoder()
	for _, c := range []color.NRGBA{{255, 255, 255, 255}, {0, 0, 0, 255}, {31, 64, 97, 255}} {
		var blk Block
		for i := range blk {
			blk[i] = c
		}
		data, _ := enc.EncodeBlock(&blk, DXT1)
		c0 := binary.LittleEndian.Uint16(data[0:])
		c1 := binary.LittleEndian.Uint16(data[2:])
		if c0 <= c1 {
			t.Errorf("%v: expected c0 > c1 for opaque mode, got 0x%04X <= 0x%04X", c, c0, c1)
		}
	}
}

func TestEncodeGradientBlock(t *testing.T) {
	var blk Block
	for i := range blk {
		v := uint8(i * 17)
		blk[i] = color.NRGBA{v, v, v, v}
	}

	for _, f := range []Format{DXT3, DXT5} {
		data, err := NewEncoder(WithPerceptual(false)).EncodeBlock(&blk, f)
		if err != nil {
			t.Fatalf("EncodeBlock: %v", err)
		}
		out, _ := DecodeBlock(data, f)
		if out[0].A != 0 || out[15].A != 255 {
			t.Errorf("%s: expected alpha extremes preserved, got %d and %d", f, out[0].A, out[15].A)
		}
		for i, px := range out {
			if d := absDiff(px.A, blk[i].A); d > 20 {
				t.Errorf("%s pixel %d: alpha error %d", f, i, d)
			}
			if d := absDiff(px.R, blk[i].R); d > 48 {
				t.Errorf("%s pixel %d: color error %d", f, i, d)
			}
		}
	}

	t.Run("DXT3Truncation", func(t *testing.T) {
		var b Block
		b[0].A = 16
		b[1].A = 33
		data, _ := NewEncoder().EncodeBlock(&b, DXT3)
		bits := binary.LittleEndian.Uint64(data[0:8])
		if bits&0xF != 0 || (bits>>4)&0xF != 1 {
			t.Errorf("expected truncated 4-bit alpha 0 and 1, got %d and %d", bits&0xF, (bits>>4)&0xF)
		}
	})
}

func TestEncoderWeights(t *testing.T) {
	if w := NewEncoder().Weights(); w != PerceptualWeights {
		t.Errorf("expected perceptual weights by default, got %v", w)
	}
	if w := NewEncoder(WithPerceptual(false)).Weights(); w != UniformWeights {
		t.Errorf("expected uniform weights, got %v", w)
	}
	if w := NewEncoder(WithWeights(1, 2, 3)).Weights(); w != [3]float64{1, 2, 3} {
		t.Errorf("expected custom weights, got %v", w)
	}
}

func TestEncoderWeightsChangeIndices(t *testing.T) {
	// White and black span the full box, so the palette is white, black,
	// gray 170 and gray 85. Pure green is closest to gray 85 by unweighted
	// distance but to gray 170 once green dominates the weights.
	var blk Block
	for i := range blk {
		blk[i] = color.NRGBA{0, 255, 0, 255}
	}
	blk[0] = color.NRGBA{255, 255, 255, 255}
	blk[1] = color.NRGBA{0, 0, 0, 255}

	index := func(t *testing.T, enc *Encoder, f Format, px int) uint32 {
		t.Helper()
		data, err := enc.EncodeBlock(&blk, f)
		if err != nil {
			t.Fatalf("EncodeBlock: %v", err)
		}
		cb := data[len(data)-8:]
		return binary.LittleEndian.Uint32(cb[4:8]) >> (2 * px) & 3
	}

	for _, f := range []Format{DXT1, DXT5} {
		t.Run(f.String(), func(t *testing.T) {
			perceptual := NewEncoder(WithPerceptual(true))
			uniform := NewEncoder(WithPerceptual(false))

			if got := index(t, perceptual, f, 0); got != 0 {
				t.Errorf("white: expected index 0, got %d", got)
			}
			if got := index(t, perceptual, f, 1); got != 1 {
				t.Errorf("black: expected index 1, got %d", got)
			}
			if got := index(t, perceptual, f, 5); got != 2 {
				t.Errorf("perceptual: expected green on index 2, got %d", got)
			}
			if got := index(t, uniform, f, 5); got != 3 {
				t.Errorf("uniform: expected green on index 3, got %d", got)
			}
		})
	}
}

func TestImageRoundTrip(t *testing.T) {
	sizes := []struct{ w, h int }{{8, 8}, {5, 7}, {1, 1}, {17, 3}}
	enc := NewEncoder()

	for _, sz := range sizes {
		src := image.NewNRGBA(image.Rect(0, 0, sz.w, sz.h))
		for y := 0; y < sz.h; y++ {
			for x := 0; x < sz.w; x++ {
				src.SetNRGBA(x, y, color.NRGBA{200, 40, 90, 255})
			}
		}

		for _, f := range []Format{DXT1, DXT3, DXT5} {
			data, err := enc.EncodeImage(src, f)
			if err != nil {
				t.Fatalf("EncodeImage: %v", err)
			}
			if len(data) != f.SurfaceSize(sz.w, sz.h) {
				t.Fatalf("%dx%d %s: expected %d bytes, got %d", sz.w, sz.h, f, f.SurfaceSize(sz.w, sz.h), len(data))
			}
			img, err := DecodeImage(data, sz.w, sz.h, f)
			if err != nil {
				t.Fatalf("DecodeImage: %v", err)
			}
			if img.Bounds() != src.Bounds() {
				t.Fatalf("bounds mismatch: %v vs %v", img.Bounds(), src.Bounds())
			}
			got := img.NRGBAAt(sz.w-1, sz.h-1)
			if absDiff(got.R, 200) > 4 || absDiff(got.G, 40) > 2 || absDiff(got.B, 90) > 4 || got.A != 255 {
				t.Errorf("%dx%d %s: corner pixel %v", sz.w, sz.h, f, got)
			}
		}
	}
}

func TestDecodeImageTruncated(t *testing.T) {
	_, err := DecodeImage(make([]byte, 63), 8, 8, DXT5)
	if !errors.Is(err, ErrShortBlock) {
		t.Errorf("expected ErrShortBlock, got %v", err)
	}
}

func TestToNRGBAOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{1, 2, 3, 255})
	n := ToNRGBA(src)
	if n.Rect != image.Rect(0, 0, 4, 2) {
		t.Fatalf("expected zero-origin rect, got %v", n.Rect)
	}
	if c := n.NRGBAAt(0, 0); c != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("expected origin pixel copied, got %v", c)
	}
}
