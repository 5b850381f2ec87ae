package core

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/JonMunkholm/crmexport/internal/schema"
	"golang.org/x/text/unicode/norm"
)

// Row is one exported lead, already rendered through the contract.
// An empty string is a missing value.
type Row [schema.ColumnCount]string

// writerBufferSize is the buffered writer size used for the output file.
const writerBufferSize = 64 * 1024

// Writer serializes export output. It writes the BOM and header once, then
// rows in the contract's CSV shape: every non-empty field double-quoted with
// embedded quotes doubled, empty fields bare, records terminated by '\n'.
// This is byte-for-byte the output of PostgreSQL's
// COPY ... (FORMAT csv, FORCE_QUOTE *) with NULL for missing values.
//
// All methods are safe for concurrent use; appends never interleave.
type Writer struct {
	mu      sync.Mutex
	counter *CountingWriter
	buf     *bufio.Writer
	started bool
	rows    int64
}

// NewWriter creates a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	counter := NewCountingWriter(w)
	return &Writer{
		counter: counter,
		buf:     bufio.NewWriterSize(counter, writerBufferSize),
	}
}

// WritePreamble writes the BOM followed by the header row.
// Calling it more than once is an error.
func (w *Writer) WritePreamble() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("preamble already written")
	}
	w.started = true

	if _, err := w.buf.Write(BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	if _, err := w.buf.WriteString(strings.Join(schema.Header(), ",") + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WriteRow appends a single row.
func (w *Writer) WriteRow(row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeRowLocked(row)
}

// WriteRows appends rows as one uninterrupted block.
func (w *Writer) WriteRows(rows []Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, row := range rows {
		if err := w.writeRowLocked(row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeRowLocked(row Row) error {
	if !w.started {
		return fmt.Errorf("row written before preamble")
	}
	if _, err := w.buf.WriteString(EncodeRow(row)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.rows++
	return nil
}

// StreamNormalized hands fn a writer whose bytes are NFC-composed on the way
// to the output. Used for pre-encoded CSV streams such as COPY output; rows
// arriving this way are counted by the caller via AddRows.
func (w *Writer) StreamNormalized(fn func(dst io.Writer) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return fmt.Errorf("stream written before preamble")
	}

	nfc := norm.NFC.Writer(w.buf)
	if err := fn(nfc); err != nil {
		nfc.Close()
		return err
	}
	if err := nfc.Close(); err != nil {
		return fmt.Errorf("flush normalizer: %w", err)
	}
	return nil
}

// AddRows records rows that were written through StreamNormalized.
func (w *Writer) AddRows(n int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows += n
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// BytesWritten returns the bytes flushed to the underlying writer so far.
func (w *Writer) BytesWritten() int64 {
	return w.counter.Count()
}

// EncodeRow renders a row as one CSV record including the trailing newline.
func EncodeRow(row Row) string {
	var b strings.Builder
	for i, field := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		if field == "" {
			continue
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	return b.String()
}
