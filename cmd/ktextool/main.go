// ktextool - KTEX texture container converter
//
// Extracts block-compressed KTEX textures to PNG (with sidecar files that
// preserve the original header) and rebuilds them from edited images.
//
// Usage:
//   ktextool extract [flags] input.tex [output.png]   # KTEX → PNG + sidecar
//   ktextool rebuild [flags] input.png [output.tex]   # PNG/DDS → KTEX
//   ktextool info [-json] input.tex...                # Show structure
//   ktextool dds [flags] input.tex [output.dds]       # KTEX → DDS, no recompression
//   ktextool restore backup.bak.zst [output]          # Undo an overwrite
//   ktextool batch extract|rebuild|dds [flags] pattern...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
)

var errBatchFailed = errors.New("one or more files failed")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "extract":
		err = runExtract(ctx, args)
	case "rebuild":
		err = runRebuild(ctx, args)
	case "info":
		err = runInfo(args)
	case "dds":
		err = runDDS(ctx, args)
	case "restore":
		err = runRestore(args)
	case "batch":
		err = runBatch(ctx, args)
	case "help", "-h", "-help", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ktextool - KTEX texture converter")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ktextool extract [flags] <input.tex> [output.png]   # KTEX → PNG")
	fmt.Println("  ktextool rebuild [flags] <input.png> [output.tex]   # PNG/DDS → KTEX")
	fmt.Println("  ktextool info [-json] <input.tex>...                # Show structure")
	fmt.Println("  ktextool dds [flags] <input.tex> [output.dds]       # KTEX → DDS")
	fmt.Println("  ktextool restore <backup.bak.zst> [output]          # Restore a backup")
	fmt.Println("  ktextool batch <extract|rebuild|dds> [flags] <pattern>...")
	fmt.Println()
	fmt.Println("Supported formats:")
	fmt.Println("  DXT1 (BC1)  - RGB + 1-bit alpha")
	fmt.Println("  DXT3 (BC2)  - RGB + explicit 4-bit alpha")
	fmt.Println("  DXT5 (BC3)  - RGB + interpolated alpha")
	fmt.Println()
	fmt.Println("Run 'ktextool <command> -h' for command flags.")
}
