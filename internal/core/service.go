package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/crmexport/internal/logging"
)

// Exporter is one export path.
//
// Prepare connects and performs any discovery; it runs before the output
// file exists, so a connectivity failure never leaves a file behind.
// Export streams rows into w after the preamble has been written. Isolated
// failures are recorded in sum; only fatal errors are returned.
type Exporter interface {
	Prepare(ctx context.Context, sum *Summary) error
	Export(ctx context.Context, w *Writer, sum *Summary) error
}

// RunOptions configures a single export run.
type RunOptions struct {
	RunID      string
	Mode       Mode
	OutputPath string
}

// ErrNoOutputPath is returned when a run has no destination.
var ErrNoOutputPath = errors.New("output path is required")

// Run executes one export pass: prepare the source, write the preamble,
// stream rows, and publish the file atomically. On a fatal error the
// temporary file is removed and the returned summary describes how far the
// run got.
func Run(ctx context.Context, opts RunOptions, exp Exporter) (*Summary, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With("mode", opts.Mode)

	sum := &Summary{
		RunID:  opts.RunID,
		Mode:   opts.Mode,
		Output: opts.OutputPath,
	}
	finish := func() {
		sum.Duration = time.Since(start)
	}

	if opts.OutputPath == "" {
		return sum, ErrNoOutputPath
	}

	if err := exp.Prepare(ctx, sum); err != nil {
		finish()
		return sum, fmt.Errorf("prepare %s export: %w", opts.Mode, err)
	}

	out, err := CreateOutput(opts.OutputPath, opts.RunID)
	if err != nil {
		finish()
		return sum, err
	}

	w := NewWriter(out)
	if err := w.WritePreamble(); err != nil {
		out.Abort()
		finish()
		return sum, err
	}

	logger.Info("export started", "output", opts.OutputPath)

	if err := exp.Export(ctx, w, sum); err != nil {
		out.Abort()
		sum.RowsExported = w.Rows()
		finish()
		logger.Error("export aborted, output discarded", "rows_written", sum.RowsExported, "error", err)
		return sum, fmt.Errorf("%s export: %w", opts.Mode, err)
	}

	if err := w.Flush(); err != nil {
		out.Abort()
		finish()
		return sum, fmt.Errorf("flush output: %w", err)
	}
	if err := out.Commit(); err != nil {
		finish()
		return sum, err
	}

	sum.RowsExported = w.Rows()
	sum.Bytes = w.BytesWritten()
	finish()

	logger.Info("export finished",
		"status", sum.Status(),
		"rows", sum.RowsExported,
		"bytes", sum.Bytes,
		"failed_batches", sum.BatchesFailed,
		"duration", sum.Duration,
	)
	return sum, nil
}
