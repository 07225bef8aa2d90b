package ktex

import (
	"image"
	"image/color"
	"io"
)

func init() {
	image.RegisterFormat("ktex", Magic, Decode, DecodeConfig)
}

// Decode reads a container from r and returns its base level.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	res, err := Extract(data, ExtractOptions{})
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// DecodeConfig returns the base level dimensions without decoding pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	buf := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return image.Config{}, &FormatError{Err: ErrInvalidMagic}
	}
	h, err := ParseHeader(buf)
	if err != nil {
		return image.Config{}, err
	}
	if err := checkDimensions(h.Width, h.Height); err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.Width, Height: h.Height}, nil
}
