package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/EchoTools/ktexTools/pkg/archive"
	"github.com/EchoTools/ktexTools/pkg/convert"
	"github.com/EchoTools/ktexTools/pkg/ktex"
)

// Extensions picked up when a batch input is a directory.
var (
	containerExts = []string{convert.ExtKTEX}
	imageExts     = []string{convert.ExtPNG, convert.ExtDDS, ".bmp", ".tif", ".tiff", ".webp", ".jpg", ".jpeg"}
)

// positional returns the input and optional output arguments.
func positional(fs *flag.FlagSet, cmd string) (input, output string, err error) {
	args := fs.Args()
	switch len(args) {
	case 1:
		return args[0], "", nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("%s expects an input and an optional output path", cmd)
	}
}

// outputFor resolves an explicit output, or one inside the configured dir.
func (e *env) outputFor(input, output, ext string) string {
	if output != "" || e.output == "" {
		return output
	}
	return convert.OutputPath(input, e.output, ext)
}

func runExtract(ctx context.Context, args []string) error {
	fs, o := newFlagSet("extract", "extract [flags] <input.tex> [output.png]")
	fs.BoolVar(&o.allMips, "all-mips", false, "Also write every mip level as <name>_mip<N>.png")
	e, err := setup(fs, o, args)
	if err != nil {
		return err
	}
	defer e.close()

	input, output, err := positional(fs, "extract")
	if err != nil {
		fs.Usage()
		return err
	}

	res, err := e.conv.ExtractFile(ctx, input, e.outputFor(input, output, convert.ExtPNG))
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %s → %s\n", res.Input, res.Output)
	fmt.Printf("  %s %dx%d, v%d, header %d bytes, %d mip levels\n",
		res.Info.Format, res.Info.Width, res.Info.Height, res.Info.Version, res.Info.HeaderLength, res.Info.MipCount())
	if len(res.MipPaths) > 0 {
		fmt.Printf("  wrote %d mip images\n", len(res.MipPaths))
	}
	return nil
}

func runRebuild(ctx context.Context, args []string) error {
	fs, o := newFlagSet("rebuild", "rebuild [flags] <input.png|input.dds> [output.tex]")
	o.rebuildFlags(fs)
	e, err := setup(fs, o, args)
	if err != nil {
		return err
	}
	defer e.close()

	input, output, err := positional(fs, "rebuild")
	if err != nil {
		fs.Usage()
		return err
	}

	res, err := e.conv.RebuildFile(ctx, input, e.outputFor(input, output, convert.ExtKTEX), o.original)
	if err != nil {
		return err
	}

	p := res.Plan
	fmt.Printf("Rebuilt %s → %s (%d bytes)\n", res.Input, res.Output, res.Size)
	fmt.Printf("  %s %dx%d, v%d, header %d bytes from %s, %d mip levels\n",
		p.Format, p.Width, p.Height, p.Version, len(p.Header), res.Source, len(p.Levels))
	return nil
}

// infoReport is the JSON shape printed by "info -json".
type infoReport struct {
	Path         string        `json:"path"`
	FileSize     int           `json:"file_size"`
	Version      uint8         `json:"version"`
	Format       string        `json:"format"`
	FormatID     uint8         `json:"format_id"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	HeaderLength int           `json:"header_length"`
	HasMipmaps   bool          `json:"has_mipmaps"`
	Rule         string        `json:"rule"`
	PayloadSize  int           `json:"payload_size"`
	Trailing     int           `json:"trailing_bytes"`
	Levels       []levelReport `json:"levels"`
}

type levelReport struct {
	Index  int `json:"index"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Size   int `json:"size"`
	Offset int `json:"offset"`
}

func newInfoReport(path string, info *ktex.Info) infoReport {
	r := infoReport{
		Path:         path,
		FileSize:     info.FileSize,
		Version:      info.Version,
		Format:       info.Format.String(),
		FormatID:     uint8(info.Format),
		Width:        info.Width,
		Height:       info.Height,
		HeaderLength: info.HeaderLength,
		HasMipmaps:   info.HasMipmaps,
		Rule:         info.Rule,
		PayloadSize:  info.PayloadSize(),
		Trailing:     info.Trailing(),
	}
	for _, l := range info.Mipmaps {
		r.Levels = append(r.Levels, levelReport{l.Index, l.Width, l.Height, l.Size, l.Offset})
	}
	return r
}

func runInfo(args []string) error {
	fs, o := newFlagSet("info", "info [-json] <input.tex>...")
	fs.BoolVar(&o.jsonOut, "json", false, "Print JSON instead of text")
	e, err := setup(fs, o, args)
	if err != nil {
		return err
	}
	defer e.close()

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("info expects at least one input")
	}

	var reports []infoReport
	failed := 0
	for _, path := range fs.Args() {
		info, err := e.conv.Inspect(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed++
			continue
		}
		if o.jsonOut {
			reports = append(reports, newInfoReport(path, info))
			continue
		}
		fmt.Printf("%s\n%s\n", path, info)
	}

	if o.jsonOut && len(reports) > 0 {
		var out []byte
		if len(reports) == 1 {
			out, err = sonic.ConfigStd.MarshalIndent(reports[0], "", "  ")
		} else {
			out, err = sonic.ConfigStd.MarshalIndent(reports, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Println(string(out))
	}

	if failed > 0 {
		return errBatchFailed
	}
	return nil
}

func runDDS(ctx context.Context, args []string) error {
	fs, o := newFlagSet("dds", "dds [flags] <input.tex> [output.dds]")
	e, err := setup(fs, o, args)
	if err != nil {
		return err
	}
	defer e.close()

	input, output, err := positional(fs, "dds")
	if err != nil {
		fs.Usage()
		return err
	}

	out, err := e.conv.ExportDDS(ctx, input, e.outputFor(input, output, convert.ExtDDS))
	if err != nil {
		return err
	}
	fmt.Printf("Exported %s → %s\n", input, out)
	return nil
}

func runRestore(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: ktextool restore <backup%s> [output]", archive.Suffix)
	}
	dst := ""
	if len(args) == 2 {
		dst = args[1]
	}
	h, err := archive.Inspect(args[0])
	if err != nil {
		return err
	}
	restored, err := archive.Restore(args[0], dst)
	if err != nil {
		return err
	}
	fmt.Printf("Restored %s → %s\n  %s\n", args[0], restored, h)
	return nil
}

func runBatch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ktextool batch <extract|rebuild|dds> [flags] <pattern>...")
	}
	mode := strings.ToLower(args[0])

	fs, o := newFlagSet("batch "+mode, "batch "+mode+" [flags] <pattern>...")
	o.batchFlags(fs)
	var exts []string
	switch mode {
	case "extract":
		fs.BoolVar(&o.allMips, "all-mips", false, "Also write every mip level as <name>_mip<N>.png")
		exts = containerExts
	case "rebuild":
		o.rebuildFlags(fs)
		exts = imageExts
	case "dds":
		exts = containerExts
	default:
		return fmt.Errorf("unknown batch mode: %s", mode)
	}

	e, err := setup(fs, o, args[1:])
	if err != nil {
		return err
	}
	defer e.close()

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("batch %s expects at least one input pattern", mode)
	}

	files, err := convert.ExpandInputs(fs.Args(), exts...)
	if err != nil {
		return err
	}
	fmt.Printf("Processing %d files with %d workers...\n", len(files), e.conv.Workers())

	var batch *convert.Batch
	switch mode {
	case "extract":
		batch = e.conv.BatchExtract(ctx, files, e.output)
	case "rebuild":
		batch = e.conv.BatchRebuild(ctx, files, e.output, o.original)
	case "dds":
		batch = e.conv.BatchExportDDS(ctx, files, e.output)
	}

	for _, out := range batch.Outcomes {
		if !out.Success {
			fmt.Fprintf(os.Stderr, "  FAILED %s: %s\n", out.Input, out.Error())
		}
	}
	fmt.Println(batch.Summary)

	if batch.Summary.Failed > 0 {
		return errBatchFailed
	}
	return nil
}
