package dxt

import (
	"encoding/binary"
	"fmt"
	"image/color"
)

// Block holds the 16 pixels of a 4x4 tile in row-major order.
type Block [PixelsPerBlock]color.NRGBA

// DecodeBlock decompresses one block. src must hold at least f.BlockSize()
// bytes; extra bytes are ignored.
func DecodeBlock(src []byte, f Format) (Block, error) {
	var blk Block
	if !f.Valid() {
		return blk, fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}
	if len(src) < f.BlockSize() {
		return blk, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortBlock, f, f.BlockSize(), len(src))
	}

	switch f {
	case DXT1:
		decodeColor(&blk, src[0:8], false)
	case DXT3:
		decodeColor(&blk, src[8:16], true)
		alphaBits := binary.LittleEndian.Uint64(src[0:8])
		for i := range blk {
			blk[i].A = uint8((alphaBits>>(4*i))&0xF) * 17
		}
	case DXT5:
		decodeColor(&blk, src[8:16], true)
		table := AlphaTable(src[0], src[1])
		alphaBits := uint48(src[2:8])
		for i := range blk {
			blk[i].A = table[(alphaBits>>(3*i))&0x7]
		}
	}
	return blk, nil
}

// decodeColor fills RGB (and, for DXT1, alpha) from an 8-byte color block.
func decodeColor(blk *Block, src []byte, fourColor bool) {
	c0 := binary.LittleEndian.Uint16(src[0:2])
	c1 := binary.LittleEndian.Uint16(src[2:4])
	indices := binary.LittleEndian.Uint32(src[4:8])

	p := palette(c0, c1, fourColor)
	for i := range blk {
		c := p[(indices>>(2*i))&0x3]
		blk[i] = color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
}

func uint48(b []byte) uint64 {
	var v uint64
	for i := 0; i < 6; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putUint48(b []byte, v uint64) {
	for i := 0; i < 6; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
