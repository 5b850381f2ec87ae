package core

// streaming.go provides the io wrappers used around export files:
//
//   - CountingWriter: tracks bytes written for the run summary
//   - BOMSkippingReader: removes the UTF-8 BOM when reading an export back

import (
	"io"
	"sync/atomic"
)

// CountingWriter wraps an io.Writer to track bytes written.
type CountingWriter struct {
	writer io.Writer
	count  atomic.Int64
}

// NewCountingWriter creates a counting writer.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{writer: w}
}

// Write implements io.Writer.
func (w *CountingWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.count.Add(int64(n))
	return n, err
}

// Count returns the number of bytes written so far.
func (w *CountingWriter) Count() int64 {
	return w.count.Load()
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte // Buffer for BOM detection
	bufData    []byte  // Bytes read during detection that were not a BOM
	bufOffset  int     // Current read position in bufData
	sawBOM     bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{
		reader: r,
	}
}

// HadBOM reports whether a BOM was found. Valid after the first Read.
func (r *BOMSkippingReader) HadBOM() bool {
	return r.sawBOM
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		if n == 3 && r.buf[0] == BOM[0] && r.buf[1] == BOM[1] && r.buf[2] == BOM[2] {
			r.sawBOM = true
		} else {
			r.bufData = r.buf[:n]
		}

		if len(r.bufData) == 0 && err == io.EOF {
			return 0, io.EOF
		}
	}

	// Return any remaining buffered data first
	if r.bufOffset < len(r.bufData) {
		copied := copy(p, r.bufData[r.bufOffset:])
		r.bufOffset += copied
		return copied, nil
	}

	return r.reader.Read(p)
}
