package convert

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/EchoTools/ktexTools/internal/errors"
	"github.com/EchoTools/ktexTools/pkg/archive"
)

// File extensions used for default output names.
const (
	ExtPNG  = ".png"
	ExtKTEX = ".tex"
	ExtDDS  = ".dds"
)

// OutputPath returns where input converts to. With dir empty the output sits
// next to the input; otherwise it is placed in dir.
func OutputPath(input, dir, ext string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if dir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(dir, name)
}

// MipPath returns the file name for mip level idx of an extracted image.
func MipPath(output string, idx int) string {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return fmt.Sprintf("%s_mip%d%s", base, idx, ExtPNG)
}

// ExpandInputs resolves glob patterns and directories into a sorted list of
// files. Directories are walked recursively and filtered by exts. A pattern
// matching nothing is kept as a literal path so it fails later with a
// per-file error.
func ExpandInputs(patterns []string, exts ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && hasExt(path, exts) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", m, err)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// prepareOutput creates the output directory and backs up an existing file
// when backups are enabled.
func (c *Converter) prepareOutput(ctx context.Context, op, output string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return errors.Wrap(errors.KindIO, op, "failed to create output directory", err).WithPath(output)
	}
	if !c.backup {
		return nil
	}
	saved, err := archive.Backup(output)
	if err != nil {
		return errors.Wrap(errors.KindIO, op, "failed to back up output", err).WithPath(output)
	}
	if saved != "" {
		c.logger.DebugContext(ctx, "backed up existing output", "output", output, "backup", saved)
	}
	return nil
}

func writePNG(op, path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return errors.Wrap(errors.KindIO, op, "failed to write image", err).WithPath(path)
	}
	return nil
}
