package dxt

import (
	"image"
	"image/color"
	"testing"
)

func benchImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), uint8(x ^ y), uint8(x + y)})
		}
	}
	return img
}

// BenchmarkEncodeImage benchmarks whole-surface compression per format.
func BenchmarkEncodeImage(b *testing.B) {
	img := benchImage(256)
	enc := NewEncoder()

	for _, f := range []Format{DXT1, DXT3, DXT5} {
		b.Run(f.String(), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := enc.EncodeImage(img, f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDecodeImage benchmarks whole-surface decompression per format.
func BenchmarkDecodeImage(b *testing.B) {
	img := benchImage(256)
	enc := NewEncoder()

	for _, f := range []Format{DXT1, DXT3, DXT5} {
		data, err := enc.EncodeImage(img, f)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(f.String(), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := DecodeImage(data, 256, 256, f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRGB565 benchmarks endpoint quantization and expansion.
func BenchmarkRGB565(b *testing.B) {
	b.Run("Pack", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = RGBToRGB565(uint8(i), uint8(i>>8), uint8(i>>16))
		}
	})

	b.Run("Expand", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _, _ = RGB565ToRGB(uint16(i))
		}
	})
}
