package core

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Mode identifies which export path produced a file.
type Mode string

const (
	ModeDB  Mode = "db"
	ModeAPI Mode = "api"
)

// BatchFailure records one remote batch that was skipped.
type BatchFailure struct {
	Batch    int    // Zero-based batch number
	Offset   int    // Offset of the first record in the batch
	Rows     int    // Records the batch would have contained
	Attempts int    // Requests made before giving up
	Code     string // Classification code, see Classify
	Err      string // Technical error text
}

// Summary is the operator-visible outcome of one run.
type Summary struct {
	RunID         string
	Mode          Mode
	Output        string
	RowsExpected  int64
	RowsExported  int64
	BatchesTotal  int
	BatchesFailed int
	RowsFailed    int64
	Bytes         int64
	Duration      time.Duration
	Warnings      []string
	Failures      []BatchFailure
}

// Warn records a non-fatal degradation.
func (s *Summary) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// AddFailure records a skipped batch.
func (s *Summary) AddFailure(f BatchFailure) {
	s.BatchesFailed++
	s.RowsFailed += int64(f.Rows)
	s.Failures = append(s.Failures, f)
}

// Partial reports whether the file is missing records because of isolated
// failures.
func (s *Summary) Partial() bool {
	return s.BatchesFailed > 0
}

// Status returns a one-word outcome.
func (s *Summary) Status() string {
	switch {
	case s.Partial():
		return "partial"
	case len(s.Warnings) > 0:
		return "degraded"
	default:
		return "complete"
	}
}

// Print writes a human-readable summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "=== Export %s ===\n", s.Status())
	fmt.Fprintf(w, "Mode     : %s\n", s.Mode)
	fmt.Fprintf(w, "File     : %s\n", s.Output)
	if s.RowsExpected > 0 {
		fmt.Fprintf(w, "Rows     : %s / %s\n", humanize.Comma(s.RowsExported), humanize.Comma(s.RowsExpected))
	} else {
		fmt.Fprintf(w, "Rows     : %s\n", humanize.Comma(s.RowsExported))
	}
	if s.BatchesTotal > 0 {
		fmt.Fprintf(w, "Batches  : %d ok, %d failed\n", s.BatchesTotal-s.BatchesFailed, s.BatchesFailed)
	}
	fmt.Fprintf(w, "Size     : %s\n", humanize.Bytes(uint64(s.Bytes)))
	fmt.Fprintf(w, "Duration : %s\n", s.Duration.Round(time.Millisecond))

	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "WARNING  : %s\n", warning)
	}
	for _, f := range s.Failures {
		msg := Classify(f.Err)
		fmt.Fprintf(w, "FAILED   : batch %d (offset %d, %d rows, %d attempts) [%s] %s\n",
			f.Batch+1, f.Offset, f.Rows, f.Attempts, f.Code, msg.Message)
	}
	if s.Partial() {
		fmt.Fprintf(w, "%s rows were not exported; re-run to retry the failed batches.\n",
			humanize.Comma(s.RowsFailed))
	}
}

// String returns the summary as printed by Print.
func (s *Summary) String() string {
	var b strings.Builder
	s.Print(&b)
	return b.String()
}
