package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeExporter struct {
	prepareErr error
	exportErr  error
	rows       []Row
	warn       string
	prepared   bool
}

func (f *fakeExporter) Prepare(ctx context.Context, sum *Summary) error {
	f.prepared = true
	if f.warn != "" {
		sum.Warn("%s", f.warn)
	}
	sum.RowsExpected = int64(len(f.rows))
	return f.prepareErr
}

func (f *fakeExporter) Export(ctx context.Context, w *Writer, sum *Summary) error {
	if err := w.WriteRows(f.rows); err != nil {
		return err
	}
	return f.exportErr
}

func TestRun_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	exp := &fakeExporter{rows: []Row{row("1", "Alpha"), row("2", "Beta")}}

	sum, err := Run(context.Background(), RunOptions{RunID: "abc", Mode: ModeDB, OutputPath: path}, exp)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.RowsExported != 2 || sum.RowsExpected != 2 {
		t.Errorf("rows = %d/%d", sum.RowsExported, sum.RowsExpected)
	}
	if sum.Status() != "complete" {
		t.Errorf("Status() = %q", sum.Status())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := exportBytes(t, exp.rows...)
	if string(data) != string(want) {
		t.Errorf("file content mismatch\ngot  %q\nwant %q", data, want)
	}
	if sum.Bytes != int64(len(data)) {
		t.Errorf("Bytes = %d, want %d", sum.Bytes, len(data))
	}
}

func TestRun_PrepareFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	exp := &fakeExporter{prepareErr: errors.New("failed to connect to host")}

	_, err := Run(context.Background(), RunOptions{RunID: "abc", Mode: ModeDB, OutputPath: path}, exp)
	if err == nil {
		t.Fatal("Run() should fail when Prepare fails")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("files left behind: %v", entries)
	}
}

func TestRun_ExportFailureDiscardsOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	exp := &fakeExporter{
		rows:      []Row{row("1", "Alpha")},
		exportErr: errors.New("connection reset by peer"),
	}

	sum, err := Run(context.Background(), RunOptions{RunID: "abc", Mode: ModeAPI, OutputPath: path}, exp)
	if err == nil {
		t.Fatal("Run() should fail when Export fails")
	}
	if sum.RowsExported != 1 {
		t.Errorf("RowsExported = %d, want 1", sum.RowsExported)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("files left behind: %v", entries)
	}
}

func TestRun_KeepsExistingFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	exp := &fakeExporter{exportErr: errors.New("boom")}
	if _, err := Run(context.Background(), RunOptions{RunID: "x", Mode: ModeDB, OutputPath: path}, exp); err == nil {
		t.Fatal("Run() should fail")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Errorf("existing file modified: %q", data)
	}
}

func TestRun_Degraded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	exp := &fakeExporter{warn: CodeTagRelationMissing + ": tags left empty"}

	sum, err := Run(context.Background(), RunOptions{RunID: "x", Mode: ModeDB, OutputPath: path}, exp)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Status() != "degraded" {
		t.Errorf("Status() = %q, want degraded", sum.Status())
	}
}

func TestRun_RequiresPath(t *testing.T) {
	exp := &fakeExporter{}
	if _, err := Run(context.Background(), RunOptions{Mode: ModeDB}, exp); !errors.Is(err, ErrNoOutputPath) {
		t.Errorf("Run() error = %v, want ErrNoOutputPath", err)
	}
	if exp.prepared {
		t.Error("Prepare() called without an output path")
	}
}
