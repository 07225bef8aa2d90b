package ktex

import (
	"fmt"

	"github.com/EchoTools/ktexTools/pkg/dxt"
	"github.com/EchoTools/ktexTools/pkg/mipmap"
)

// Layout is the resolved structure of a container: either NoMip or Mip.
type Layout interface {
	HeaderLength() int
	Levels() []mipmap.Level
	HasMipmaps() bool
}

// NoMip is a container holding only the base level.
type NoMip struct {
	HeaderLen int
	Base      mipmap.Level
}

func (l NoMip) HeaderLength() int      { return l.HeaderLen }
func (l NoMip) Levels() []mipmap.Level { return []mipmap.Level{l.Base} }
func (l NoMip) HasMipmaps() bool       { return false }
func (l NoMip) String() string         { return fmt.Sprintf("no mipmaps, %d-byte header", l.HeaderLen) }

// Mip is a container holding the full mip chain.
type Mip struct {
	HeaderLen int
	Chain     []mipmap.Level
}

func (l Mip) HeaderLength() int      { return l.HeaderLen }
func (l Mip) Levels() []mipmap.Level { return l.Chain }
func (l Mip) HasMipmaps() bool       { return true }
func (l Mip) String() string {
	return fmt.Sprintf("%d mipmaps, %d-byte header", len(l.Chain), l.HeaderLen)
}

// Plausible header-length windows for each payload interpretation.
const (
	noMipHeaderMin = 12
	noMipHeaderMax = 64
	mipHeaderMin   = 8
	mipHeaderMax   = 256
)

// sizing carries the quantities every layout rule is evaluated against.
type sizing struct {
	version  uint8
	fileLen  int
	base     mipmap.Level
	chain    []mipmap.Level
	mipTotal int
}

func newSizing(h Header, fileLen int) sizing {
	chain, total := mipmap.BuildChain(h.Width, h.Height, h.Format)
	return sizing{
		version:  h.Version,
		fileLen:  fileLen,
		base:     mipmap.BaseLevel(h.Width, h.Height, h.Format),
		chain:    chain,
		mipTotal: total,
	}
}

// layoutRule is one candidate interpretation of a container.
type layoutRule struct {
	name    string
	resolve func(s sizing) (Layout, bool)
}

// layoutRules are tried in order; the first that accepts wins.
var layoutRules = []layoutRule{
	{
		name: "single-level size match",
		resolve: func(s sizing) (Layout, bool) {
			hl := s.fileLen - s.base.Size
			if hl < noMipHeaderMin || hl > noMipHeaderMax {
				return nil, false
			}
			return NoMip{HeaderLen: hl, Base: s.base}, true
		},
	},
	{
		name: "mip-chain size match",
		resolve: func(s sizing) (Layout, bool) {
			hl := s.fileLen - s.mipTotal
			if hl < mipHeaderMin || hl > mipHeaderMax {
				return nil, false
			}
			return Mip{HeaderLen: hl, Chain: s.chain}, true
		},
	},
	{
		name: "version default",
		resolve: func(s sizing) (Layout, bool) {
			switch s.version {
			case VersionNoMipmaps:
				return NoMip{HeaderLen: HeaderSizeNoMipmaps, Base: s.base}, true
			case VersionCompactMipmaps:
				return Mip{HeaderLen: HeaderSizeCompactMipmaps, Chain: s.chain}, true
			case VersionFullMipmaps:
				return Mip{HeaderLen: HeaderSizeFullMipmaps, Chain: s.chain}, true
			}
			return nil, false
		},
	},
}

// ResolveLayout picks the layout for a container with header h and total
// length fileLen. It returns the name of the rule that matched.
func ResolveLayout(h Header, fileLen int) (Layout, string, error) {
	if err := checkDimensions(h.Width, h.Height); err != nil {
		return nil, "", err
	}
	s := newSizing(h, fileLen)
	for _, rule := range layoutRules {
		if layout, ok := rule.resolve(s); ok {
			return layout, rule.name, nil
		}
	}
	return nil, "", formatErrorf(ErrUnknownVersion, "version %d", h.Version)
}

// expectedFileSize returns the container size a layout implies.
func expectedFileSize(l Layout) int {
	return l.HeaderLength() + mipmap.TotalSize(l.Levels())
}

// SizeFor returns the container length for a width x height texture in
// format f with the given header length, with or without mipmaps.
func SizeFor(width, height int, f dxt.Format, headerLen int, mipmaps bool) int {
	if !mipmaps {
		return headerLen + f.SurfaceSize(width, height)
	}
	_, total := mipmap.BuildChain(width, height, f)
	return headerLen + total
}
