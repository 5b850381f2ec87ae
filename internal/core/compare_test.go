package core

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/crmexport/internal/schema"
)

func exportBytes(t *testing.T, rows ...Row) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WritePreamble(); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRows(rows); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func row(id, name string) Row {
	var r Row
	r[0] = id
	r[1] = name
	return r
}

func TestCompareExports_Identical(t *testing.T) {
	a := exportBytes(t, row("1", "Alpha"), row("2", "Beta"))
	b := exportBytes(t, row("1", "Alpha"), row("2", "Beta"))

	diff, n, err := CompareExports(bytes.NewReader(a), bytes.NewReader(b))
	if err != nil {
		t.Fatalf("CompareExports() error = %v", err)
	}
	if diff != nil {
		t.Fatalf("unexpected difference: %s", diff)
	}
	if n != 2 {
		t.Errorf("records = %d, want 2", n)
	}
}

func TestCompareExports_FieldDifference(t *testing.T) {
	a := exportBytes(t, row("1", "Alpha"), row("2", "Beta"))
	b := exportBytes(t, row("1", "Alpha"), row("2", "Gamma"))

	diff, _, err := CompareExports(bytes.NewReader(a), bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if diff == nil {
		t.Fatal("expected a difference")
	}
	if diff.Line != 3 || diff.Column != schema.LeadColumns[1].Name {
		t.Errorf("difference at line %d column %q", diff.Line, diff.Column)
	}
	if diff.Left != "Beta" || diff.Right != "Gamma" {
		t.Errorf("difference values = %q vs %q", diff.Left, diff.Right)
	}
	if !strings.Contains(diff.String(), "opportunity_name") {
		t.Errorf("String() = %q", diff.String())
	}
}

func TestCompareExports_LengthDifference(t *testing.T) {
	a := exportBytes(t, row("1", "Alpha"), row("2", "Beta"))
	b := exportBytes(t, row("1", "Alpha"))

	diff, _, err := CompareExports(bytes.NewReader(a), bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if diff == nil || diff.Line != 3 || diff.Right != "end of file" {
		t.Errorf("difference = %+v", diff)
	}
}

func TestCompareExports_MissingBOM(t *testing.T) {
	a := exportBytes(t, row("1", "Alpha"))
	b := a[len(BOM):]

	diff, _, err := CompareExports(bytes.NewReader(a), bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if diff == nil || diff.Right != "no bom" {
		t.Errorf("difference = %+v", diff)
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "db.csv")
	right := filepath.Join(dir, "api.csv")
	data := exportBytes(t, row("1", "Alpha"))
	if err := os.WriteFile(left, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(right, data, 0o644); err != nil {
		t.Fatal(err)
	}

	diff, n, err := CompareFiles(left, right)
	if err != nil || diff != nil || n != 1 {
		t.Errorf("CompareFiles() = %v, %d, %v", diff, n, err)
	}

	if _, _, err := CompareFiles(left, filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("CompareFiles() with a missing file should fail")
	}
}
