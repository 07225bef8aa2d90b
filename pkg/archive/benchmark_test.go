package archive

import (
	"bytes"
	"testing"

	"github.com/DataDog/zstd"
)

// blockPayload approximates a DXT5 surface: repeated endpoint pairs with
// varying index words.
func blockPayload(size int) []byte {
	data := make([]byte, size)
	for i := 0; i+16 <= size; i += 16 {
		copy(data[i:], []byte{0xff, 0x00, 0x49, 0x92, 0x24, 0x49, 0x92, 0x24, 0x1f, 0xf8, 0x00, 0x00})
		data[i+12] = byte(i >> 4)
		data[i+13] = byte(i >> 8)
		data[i+14] = 0x55
		data[i+15] = 0xaa
	}
	return data
}

func BenchmarkEncode(b *testing.B) {
	data := blockPayload(1024 * 1024)

	for _, level := range []struct {
		name  string
		level int
	}{
		{"BestSpeed", zstd.BestSpeed},
		{"Default", zstd.DefaultCompression},
	} {
		b.Run(level.name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := Encode(data, Header{}, level.level); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkReadAll(b *testing.B) {
	data := blockPayload(1024 * 1024)
	encoded, err := Encode(data, Header{}, DefaultCompressionLevel)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, _, err := ReadAll(bytes.NewReader(encoded)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseHeader(b *testing.B) {
	data := (&Header{Version: FormatVersion, Length: 1 << 20, CompressedLength: 1 << 19}).AppendTo(nil)
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ParseHeader(data); err != nil {
			b.Fatal(err)
		}
	}
}
