package dxt

// Expansion tables from 5- and 6-bit channels to 8 bits, rounded to the
// nearest value: floor((i*255 + max/2) / max).
var (
	expand5 = buildExpandTable(31)
	expand6 = buildExpandTable(63)
)

func buildExpandTable(maxVal int) []uint8 {
	table := make([]uint8, maxVal+1)
	half := maxVal / 2
	for i := range table {
		table[i] = uint8((i*255 + half) / maxVal)
	}
	return table
}

// RGB565ToRGB expands a packed 5-6-5 color to 8 bits per channel.
func RGB565ToRGB(c uint16) (r, g, b uint8) {
	return expand5[(c>>11)&0x1F], expand6[(c>>5)&0x3F], expand5[c&0x1F]
}

// RGBToRGB565 packs an 8-bit color into 5-6-5, rounding each channel to the
// nearest representable level.
func RGBToRGB565(r, g, b uint8) uint16 {
	r5 := (uint16(r)*31 + 127) / 255
	g6 := (uint16(g)*63 + 127) / 255
	b5 := (uint16(b)*31 + 127) / 255
	return r5<<11 | g6<<5 | b5
}

// AlphaTable builds the DXT5 alpha palette for the endpoints a0 and a1.
//
// With a0 > a1 the palette holds 8 values spaced in 7 equal steps. Otherwise
// it holds 6 values spaced in 5 steps followed by the constants 0 and 255.
func AlphaTable(a0, a1 uint8) [8]uint8 {
	var t [8]uint8
	t[0], t[1] = a0, a1
	x0, x1 := int(a0), int(a1)
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			t[i+1] = uint8(((7-i)*x0 + i*x1) / 7)
		}
		return t
	}
	for i := 1; i <= 4; i++ {
		t[i+1] = uint8(((5-i)*x0 + i*x1) / 5)
	}
	t[6] = 0
	t[7] = 255
	return t
}

// palette expands two RGB565 endpoints into the 4-entry block palette. When
// opaque is false and c0 <= c1, the DXT1 three-color mode applies: entry 2 is
// the midpoint and entry 3 is transparent black.
func palette(c0, c1 uint16, fourColor bool) [4][4]uint8 {
	r0, g0, b0 := RGB565ToRGB(c0)
	r1, g1, b1 := RGB565ToRGB(c1)

	var p [4][4]uint8
	p[0] = [4]uint8{r0, g0, b0, 255}
	p[1] = [4]uint8{r1, g1, b1, 255}

	if fourColor || c0 > c1 {
		p[2] = [4]uint8{lerp3(r0, r1), lerp3(g0, g1), lerp3(b0, b1), 255}
		p[3] = [4]uint8{lerp3(r1, r0), lerp3(g1, g0), lerp3(b1, b0), 255}
		return p
	}

	p[2] = [4]uint8{mid(r0, r1), mid(g0, g1), mid(b0, b1), 255}
	p[3] = [4]uint8{0, 0, 0, 0}
	return p
}

// lerp3 returns (2a + b) / 3.
func lerp3(a, b uint8) uint8 {
	return uint8((2*int(a) + int(b)) / 3)
}

func mid(a, b uint8) uint8 {
	return uint8((int(a) + int(b)) / 2)
}
