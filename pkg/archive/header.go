// Package archive keeps zstd-compressed backups of files that a conversion
// is about to overwrite.
//
// A backup is a fixed 40-byte header followed by one zstd frame:
//
//	0x00  [4]byte  magic "KBAK"
//	0x04  uint16   format version
//	0x06  uint16   reserved, zero
//	0x08  uint32   CRC-32 (IEEE) of the original bytes
//	0x0C  uint32   original file mode
//	0x10  int64    original modification time, Unix nanoseconds (0 = unknown)
//	0x18  uint64   original length
//	0x20  uint64   compressed length
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Magic identifies a backup file.
var Magic = [4]byte{'K', 'B', 'A', 'K'}

const (
	// HeaderSize is the fixed size of the backup header.
	HeaderSize = 40
	// FormatVersion is the only header version this package writes and reads.
	FormatVersion = 1
)

var (
	ErrInvalidMagic = errors.New("not a backup file")
	ErrVersion      = errors.New("unsupported backup version")
	ErrTruncated    = errors.New("backup truncated")
	ErrChecksum     = errors.New("backup checksum mismatch")
)

// Header describes the file a backup was taken from.
type Header struct {
	Version          uint16
	Checksum         uint32
	Mode             fs.FileMode
	ModTime          time.Time
	Length           uint64
	CompressedLength uint64
}

func (h *Header) String() string {
	return fmt.Sprintf("backup v%d: %d bytes (%d compressed), mode %s, crc %08x",
		h.Version, h.Length, h.CompressedLength, h.Mode, h.Checksum)
}

// AppendTo appends the encoded header to buf.
func (h *Header) AppendTo(buf []byte) []byte {
	var mtime int64
	if !h.ModTime.IsZero() {
		mtime = h.ModTime.UnixNano()
	}

	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, h.Version)
	buf = binary.LittleEndian.AppendUint16(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, h.Checksum)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.Mode))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(mtime))
	buf = binary.LittleEndian.AppendUint64(buf, h.Length)
	return binary.LittleEndian.AppendUint64(buf, h.CompressedLength)
}

// ParseHeader decodes and validates the header at the start of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(data))
	}
	if [4]byte(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidMagic, data[0:4])
	}

	h := &Header{
		Version:          binary.LittleEndian.Uint16(data[4:6]),
		Checksum:         binary.LittleEndian.Uint32(data[8:12]),
		Mode:             fs.FileMode(binary.LittleEndian.Uint32(data[12:16])),
		Length:           binary.LittleEndian.Uint64(data[24:32]),
		CompressedLength: binary.LittleEndian.Uint64(data[32:40]),
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if ns := int64(binary.LittleEndian.Uint64(data[16:24])); ns != 0 {
		h.ModTime = time.Unix(0, ns)
	}
	if h.CompressedLength == 0 {
		return nil, fmt.Errorf("%w: empty compressed stream", ErrTruncated)
	}
	return h, nil
}
