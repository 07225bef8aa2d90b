package archive

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/DataDog/zstd"
)

// DefaultCompressionLevel favors speed; backups are taken on every overwrite.
const DefaultCompressionLevel = zstd.BestSpeed

// Encode compresses data into a complete backup. Version, checksum and
// lengths in h are filled in; Mode and ModTime are kept as given.
func Encode(data []byte, h Header, level int) ([]byte, error) {
	compressed, err := zstd.CompressLevel(nil, data, level)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	h.Version = FormatVersion
	h.Checksum = crc32.ChecksumIEEE(data)
	h.Length = uint64(len(data))
	h.CompressedLength = uint64(len(compressed))

	out := make([]byte, 0, HeaderSize+len(compressed))
	out = h.AppendTo(out)
	return append(out, compressed...), nil
}

// Reader streams the original bytes out of a backup. The length and
// checksum are verified when the stream ends; a mismatch is returned in
// place of io.EOF.
type Reader struct {
	header *Header
	z      io.ReadCloser
	crc    hash.Hash32
	n      uint64
}

// NewReader reads the header from r and returns a reader over the
// decompressed content.
func NewReader(r io.Reader) (*Reader, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	return &Reader{
		header: h,
		z:      zstd.NewReader(io.LimitReader(r, int64(h.CompressedLength))),
		crc:    crc32.NewIEEE(),
	}, nil
}

// Header returns the parsed backup header.
func (r *Reader) Header() *Header {
	return r.header
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.z.Read(p)
	r.crc.Write(p[:n])
	r.n += uint64(n)

	if err == io.EOF {
		if r.n != r.header.Length {
			return n, fmt.Errorf("%w: expected %d bytes, got %d", ErrTruncated, r.header.Length, r.n)
		}
		if sum := r.crc.Sum32(); sum != r.header.Checksum {
			return n, fmt.Errorf("%w: expected %08x, got %08x", ErrChecksum, r.header.Checksum, sum)
		}
	}
	return n, err
}

func (r *Reader) Close() error {
	return r.z.Close()
}

// ReadAll returns the verified original bytes of the backup in r.
func ReadAll(r io.Reader) ([]byte, *Header, error) {
	br, err := NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer br.Close()

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, nil, err
	}
	return data, br.header, nil
}
