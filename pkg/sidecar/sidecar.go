// Package sidecar persists container metadata next to extracted images.
//
// For an image "dir/name.png" two files may exist:
//
//	dir/name.ktex_header     raw container header bytes
//	dir/name.ktex_meta.json  metadata as JSON
//
// Either file may be missing. Rebuild treats a missing sidecar as a request
// for default settings.
package sidecar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/EchoTools/ktexTools/pkg/ktex"
)

const (
	HeaderSuffix = ".ktex_header"
	MetaSuffix   = ".ktex_meta.json"
)

// Paths returns the header and metadata paths for imagePath.
func Paths(imagePath string) (header, meta string) {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	return base + HeaderSuffix, base + MetaSuffix
}

// Save writes the parts of sc that are present next to imagePath.
func Save(imagePath string, sc ktex.Sidecar) error {
	headerPath, metaPath := Paths(imagePath)

	if len(sc.Header) > 0 {
		if err := os.WriteFile(headerPath, sc.Header, 0644); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if sc.Meta != nil {
		data, err := sonic.ConfigStd.MarshalIndent(sc.Meta, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		if err := os.WriteFile(metaPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	return nil
}

// Load reads whatever sidecar files exist next to imagePath. When neither
// exists it returns an empty Sidecar and no error.
func Load(imagePath string) (*ktex.Sidecar, error) {
	headerPath, metaPath := Paths(imagePath)
	sc := &ktex.Sidecar{}

	header, err := os.ReadFile(headerPath)
	switch {
	case err == nil:
		sc.Header = header
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	data, err := os.ReadFile(metaPath)
	switch {
	case err == nil:
		var meta ktex.Metadata
		if err := sonic.ConfigStd.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", metaPath, err)
		}
		sc.Meta = &meta
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	return sc, nil
}

// FromContainer derives a sidecar from an original container file, for
// rebuilding an image that was never extracted by this tool.
func FromContainer(path string) (*ktex.Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read original: %w", err)
	}
	info, err := ktex.Detect(data)
	if err != nil {
		return nil, ktex.WithPath(err, path)
	}
	sc := info.Sidecar()
	return &sc, nil
}

// Remove deletes the sidecar files for imagePath, ignoring missing ones.
func Remove(imagePath string) error {
	headerPath, metaPath := Paths(imagePath)
	for _, p := range []string{headerPath, metaPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
