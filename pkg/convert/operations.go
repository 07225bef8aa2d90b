package convert

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/EchoTools/ktexTools/internal/errors"
	"github.com/EchoTools/ktexTools/pkg/dds"
	"github.com/EchoTools/ktexTools/pkg/dxt"
	"github.com/EchoTools/ktexTools/pkg/ktex"
	"github.com/EchoTools/ktexTools/pkg/sidecar"
)

// ExtractResult describes a completed extraction.
type ExtractResult struct {
	Input    string
	Output   string
	Info     *ktex.Info
	MipPaths []string
}

// RebuildResult describes a completed rebuild.
type RebuildResult struct {
	Input  string
	Output string
	Plan   *ktex.Plan
	Size   int
	// Source names where header and metadata came from.
	Source string
}

// ExtractFile decodes the container at input to a PNG at output and writes
// its sidecar. An empty output selects OutputPath(input, "", ".png").
func (c *Converter) ExtractFile(ctx context.Context, input, output string) (*ExtractResult, error) {
	const op = "extract"
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindCancel, op, "cancelled", err).WithPath(input)
	}
	if output == "" {
		output = OutputPath(input, "", ExtPNG)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrap(errors.KindIO, op, "failed to read input", err).WithPath(input)
	}

	res, err := ktex.Extract(data, ktex.ExtractOptions{AllLevels: c.allLevels})
	if err != nil {
		return nil, errors.Wrap(errors.KindFormat, op, "invalid container", ktex.WithPath(err, input)).WithPath(input)
	}

	if err := c.prepareOutput(ctx, op, output); err != nil {
		return nil, err
	}
	if err := writePNG(op, output, res.Image); err != nil {
		return nil, err
	}
	if err := sidecar.Save(output, res.Sidecar); err != nil {
		return nil, errors.Wrap(errors.KindIO, op, "failed to write sidecar", err).WithPath(output)
	}

	out := &ExtractResult{Input: input, Output: output, Info: res.Info}
	for i, img := range res.Levels {
		p := MipPath(output, i)
		if err := c.prepareOutput(ctx, op, p); err != nil {
			return nil, err
		}
		if err := writePNG(op, p, img); err != nil {
			return nil, err
		}
		out.MipPaths = append(out.MipPaths, p)
	}

	c.logger.InfoContext(ctx, "extracted",
		"input", input,
		"output", output,
		"format", res.Info.Format.String(),
		"width", res.Info.Width,
		"height", res.Info.Height,
		"header", res.Info.HeaderLength,
		"mipmaps", res.Info.MipCount(),
		"rule", res.Info.Rule,
	)
	return out, nil
}

// RebuildFile encodes the image at input into a container at output.
//
// Header and metadata come from the sidecar next to input. When no metadata
// file exists and original is set, the original container supplies both.
// DDS inputs keep their pixel format. An empty output selects
// OutputPath(input, "", ".tex").
func (c *Converter) RebuildFile(ctx context.Context, input, output, original string) (*RebuildResult, error) {
	const op = "rebuild"
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindCancel, op, "cancelled", err).WithPath(input)
	}
	if output == "" {
		output = OutputPath(input, "", ExtKTEX)
	}
	if sameFile(input, output) {
		return nil, errors.New(errors.KindIO, op, "output would overwrite input").WithPath(input)
	}

	img, format, err := loadImage(input)
	if err != nil {
		return nil, err
	}

	sc, source, err := loadSidecar(input, original)
	if err != nil {
		return nil, err
	}

	opts := ktex.RebuildOptions{
		Format:  format,
		Mipmaps: c.mipmaps,
		Encoder: c.encoder,
		Filter:  c.filter,
	}
	if !sc.Empty() {
		opts.Sidecar = sc
	}

	start := time.Now()
	data, plan, err := ktex.Rebuild(img, opts)
	if err != nil {
		kind := errors.KindEncode
		if ktex.IsFormatError(err) {
			kind = errors.KindFormat
		}
		return nil, errors.Wrap(kind, op, "failed to encode", err).WithPath(input)
	}

	if err := c.prepareOutput(ctx, op, output); err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return nil, errors.Wrap(errors.KindIO, op, "failed to write output", err).WithPath(output)
	}

	c.logger.InfoContext(ctx, "rebuilt",
		"input", input,
		"output", output,
		"format", plan.Format.String(),
		"version", plan.Version,
		"width", plan.Width,
		"height", plan.Height,
		"mipmaps", len(plan.Levels),
		"header", len(plan.Header),
		"source", source,
		"encode_time", time.Since(start),
	)
	return &RebuildResult{Input: input, Output: output, Plan: plan, Size: len(data), Source: source}, nil
}

// Inspect detects the structure of the container at path.
func (c *Converter) Inspect(path string) (*ktex.Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.KindIO, "info", "failed to read input", err).WithPath(path)
	}
	info, err := ktex.Detect(data)
	if err != nil {
		return nil, errors.Wrap(errors.KindFormat, "info", "invalid container", ktex.WithPath(err, path)).WithPath(path)
	}
	return info, nil
}

// ExportDDS writes the payload of the container at input as a DDS file.
func (c *Converter) ExportDDS(ctx context.Context, input, output string) (string, error) {
	const op = "dds"
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.KindCancel, op, "cancelled", err).WithPath(input)
	}
	if output == "" {
		output = OutputPath(input, "", ExtDDS)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", errors.Wrap(errors.KindIO, op, "failed to read input", err).WithPath(input)
	}
	info, err := ktex.Detect(data)
	if err != nil {
		return "", errors.Wrap(errors.KindFormat, op, "invalid container", ktex.WithPath(err, input)).WithPath(input)
	}
	out, err := dds.FromKTEX(info, data)
	if err != nil {
		return "", errors.Wrap(errors.KindFormat, op, "failed to export", err).WithPath(input)
	}

	if err := c.prepareOutput(ctx, op, output); err != nil {
		return "", err
	}
	if err := os.WriteFile(output, out, 0644); err != nil {
		return "", errors.Wrap(errors.KindIO, op, "failed to write output", err).WithPath(output)
	}

	c.logger.InfoContext(ctx, "exported", "input", input, "output", output, "mipmaps", info.MipCount())
	return output, nil
}

// loadImage reads a raster image, or the base level of a DDS file. For DDS
// inputs the returned format pins the container format.
func loadImage(path string) (image.Image, *dxt.Format, error) {
	const op = "rebuild"
	if strings.EqualFold(filepath.Ext(path), ExtDDS) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, errors.Wrap(errors.KindIO, op, "failed to read input", err).WithPath(path)
		}
		s, err := dds.Parse(data)
		if err != nil {
			return nil, nil, errors.Wrap(errors.KindFormat, op, "invalid dds", err).WithPath(path)
		}
		img, err := dxt.DecodeImage(s.Base(), s.Width, s.Height, s.Format)
		if err != nil {
			return nil, nil, errors.Wrap(errors.KindFormat, op, "invalid dds payload", err).WithPath(path)
		}
		f := s.Format
		return img, &f, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, nil, errors.Wrap(errors.KindIO, op, "failed to read input", err).WithPath(path)
	}
	img, err := imgio.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindFormat, op, "failed to decode image", err).WithPath(path)
	}
	return img, nil, nil
}

// loadSidecar resolves header and metadata for input. The returned source
// is "sidecar", "original" or "defaults".
func loadSidecar(input, original string) (*ktex.Sidecar, string, error) {
	const op = "rebuild"
	sc, err := sidecar.Load(input)
	if err != nil {
		return nil, "", errors.Wrap(errors.KindFormat, op, "invalid sidecar", err).WithPath(input)
	}
	if sc.Meta == nil && original != "" {
		orig, err := sidecar.FromContainer(original)
		if err != nil {
			kind := errors.KindIO
			if ktex.IsFormatError(err) {
				kind = errors.KindFormat
			}
			return nil, "", errors.Wrap(kind, op, "failed to read original", err).WithPath(original)
		}
		return orig, "original", nil
	}
	if sc.Empty() {
		return sc, "defaults", nil
	}
	return sc, "sidecar", nil
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}
