package convert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/EchoTools/ktexTools/internal/errors"
)

// Outcome is the result of one file in a batch. Outcomes are returned in
// input order regardless of completion order.
type Outcome struct {
	Input    string
	Output   string
	Success  bool
	Err      error
	Kind     errors.Kind
	Duration time.Duration
}

// Error returns the failure message, or "" on success.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Summary aggregates a batch.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("Completed: %d/%d succeeded, %d failed in %s", s.Succeeded, s.Total, s.Failed, s.Elapsed.Round(time.Millisecond))
}

// Batch is the result of a batch run.
type Batch struct {
	Summary  Summary
	Outcomes []Outcome
}

// task converts one input and returns the output path.
type task func(ctx context.Context, input string) (string, error)

// BatchExtract extracts every file in files. With outDir set, outputs are
// placed there; otherwise next to each input.
func (c *Converter) BatchExtract(ctx context.Context, files []string, outDir string) *Batch {
	return c.run(ctx, "extract", files, func(ctx context.Context, in string) (string, error) {
		out := ""
		if outDir != "" {
			out = OutputPath(in, outDir, ExtPNG)
		}
		res, err := c.ExtractFile(ctx, in, out)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	})
}

// BatchRebuild rebuilds every image in files. original, if set, serves
// every input that lacks sidecar metadata.
func (c *Converter) BatchRebuild(ctx context.Context, files []string, outDir, original string) *Batch {
	return c.run(ctx, "rebuild", files, func(ctx context.Context, in string) (string, error) {
		out := ""
		if outDir != "" {
			out = OutputPath(in, outDir, ExtKTEX)
		}
		res, err := c.RebuildFile(ctx, in, out, original)
		if err != nil {
			return "", err
		}
		return res.Output, nil
	})
}

// BatchExportDDS exports every container in files as DDS.
func (c *Converter) BatchExportDDS(ctx context.Context, files []string, outDir string) *Batch {
	return c.run(ctx, "dds", files, func(ctx context.Context, in string) (string, error) {
		out := ""
		if outDir != "" {
			out = OutputPath(in, outDir, ExtDDS)
		}
		return c.ExportDDS(ctx, in, out)
	})
}

// run executes fn over files on at most c.workers goroutines. A failing
// file never stops the others. Cancelling ctx lets in-flight files finish
// and reports the rest as failed.
func (c *Converter) run(ctx context.Context, op string, files []string, fn task) *Batch {
	runID := uuid.NewString()
	log := c.logger.With("run", runID, "op", op)
	log.InfoContext(ctx, "batch started", "files", len(files), "workers", c.workers)

	start := time.Now()
	outcomes := make([]Outcome, len(files))

	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, input := range files {
		i, input := i, input
		g.Go(func() error {
			t0 := time.Now()
			output, err := fn(ctx, input)
			o := Outcome{
				Input:    input,
				Output:   output,
				Success:  err == nil,
				Err:      err,
				Duration: time.Since(t0),
			}
			if err != nil {
				o.Kind = errors.KindOf(err)
				log.WarnContext(ctx, "file failed", "input", input, "kind", o.Kind, "error", err)
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{RunID: runID, Total: len(files), Elapsed: time.Since(start)}
	for _, o := range outcomes {
		if o.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	log.InfoContext(ctx, "batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed,
	)
	return &Batch{Summary: summary, Outcomes: outcomes}
}
