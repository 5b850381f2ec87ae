package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/crmexport/internal/schema"
)

// Difference describes the first point where two exports disagree.
type Difference struct {
	Line   int    // 1-based CSV record number, header is 1
	Column string // Column name, empty when the records differ in shape
	Left   string
	Right  string
}

// String renders the difference for an operator.
func (d Difference) String() string {
	if d.Column == "" {
		return fmt.Sprintf("record %d: %s vs %s", d.Line, d.Left, d.Right)
	}
	return fmt.Sprintf("record %d, column %s: %q vs %q", d.Line, d.Column, d.Left, d.Right)
}

// CompareFiles opens two export files and compares them with CompareExports.
func CompareFiles(leftPath, rightPath string) (*Difference, int, error) {
	left, err := os.Open(leftPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", leftPath, err)
	}
	defer left.Close()

	right, err := os.Open(rightPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", rightPath, err)
	}
	defer right.Close()

	return CompareExports(left, right)
}

// CompareExports reads two exports record by record and returns the first
// difference, or nil when they are logically identical. Both inputs must
// start with the BOM. The record count (excluding the header) is returned
// when they match.
func CompareExports(left, right io.Reader) (*Difference, int, error) {
	lb := NewBOMSkippingReader(left)
	rb := NewBOMSkippingReader(right)
	lr := csv.NewReader(lb)
	rr := csv.NewReader(rb)
	lr.FieldsPerRecord = -1
	rr.FieldsPerRecord = -1

	header := schema.Header()
	for line := 1; ; line++ {
		lrec, lerr := lr.Read()
		rrec, rerr := rr.Read()

		if line == 1 && (!lb.HadBOM() || !rb.HadBOM()) {
			return &Difference{Line: 0, Left: bomState(lb), Right: bomState(rb)}, 0, nil
		}

		if errors.Is(lerr, io.EOF) && errors.Is(rerr, io.EOF) {
			return nil, line - 2, nil
		}
		if lerr != nil && !errors.Is(lerr, io.EOF) {
			return nil, 0, fmt.Errorf("read left record %d: %w", line, lerr)
		}
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, 0, fmt.Errorf("read right record %d: %w", line, rerr)
		}
		if lerr != nil || rerr != nil {
			return &Difference{Line: line, Left: recordState(lrec), Right: recordState(rrec)}, 0, nil
		}
		if len(lrec) != len(rrec) {
			return &Difference{
				Line:  line,
				Left:  fmt.Sprintf("%d fields", len(lrec)),
				Right: fmt.Sprintf("%d fields", len(rrec)),
			}, 0, nil
		}

		for i := range lrec {
			if lrec[i] == rrec[i] {
				continue
			}
			col := fmt.Sprintf("#%d", i+1)
			if i < len(header) {
				col = header[i]
			}
			return &Difference{Line: line, Column: col, Left: lrec[i], Right: rrec[i]}, 0, nil
		}
	}
}

func bomState(r *BOMSkippingReader) string {
	if r.HadBOM() {
		return "bom"
	}
	return "no bom"
}

func recordState(rec []string) string {
	if rec == nil {
		return "end of file"
	}
	return fmt.Sprintf("%d fields", len(rec))
}
