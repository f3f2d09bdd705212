package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

const (
	goodStep1 = `{"checkpoint_step": 1000, "text_examples": ["a b", "c d"], "cluster_labels": [0, 1]}`
	goodStep2 = `{"checkpoint_step": 2000, "text_examples": ["e f"], "cluster_labels": ["3"]}`
)

func TestFileSource_Discovers(t *testing.T) {
	root := t.TempDir()
	writeLines(t, root, "results/L1N20_pythia70m_ckpt_series.jsonl", goodStep2, goodStep1)
	writeLines(t, root, "results/pythia70m/L0N40_pythia70m_ckpt_series.jsonl", goodStep1)
	writeLines(t, root, "results/L0N0_pythia160m_ckpt_series.jsonl", goodStep1) // other model
	writeLines(t, root, "results/notes.txt", "ignored")

	ds, err := loadFiles(t, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []neuron.ID{{Layer: 0, Index: 40}, {Layer: 1, Index: 20}}
	if !reflect.DeepEqual(ds.IDs, want) {
		t.Errorf("IDs = %v, want %v", ds.IDs, want)
	}
	if len(ds.LoadErrors) != 0 {
		t.Errorf("unexpected load errors: %+v", ds.LoadErrors)
	}

	s, err := ds.Lookup(neuron.ID{Layer: 1, Index: 20})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := s.Steps(); !reflect.DeepEqual(got, []int{1000, 2000}) {
		t.Errorf("Steps = %v, want records sorted by step", got)
	}
	r, err := ds.Checkpoint(neuron.ID{Layer: 1, Index: 20}, 2000)
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if !reflect.DeepEqual(r.ClusterLabels, []neuron.Label{"3"}) {
		t.Errorf("labels = %v", r.ClusterLabels)
	}
}

func TestFileSource_LaterSearchDirWins(t *testing.T) {
	root := t.TempDir()
	writeLines(t, root, "results/L0N0_pythia70m_ckpt_series.jsonl", goodStep1)
	writeLines(t, root, "results/pythia70m/L0N0_pythia70m_ckpt_series.jsonl", goodStep2)

	ds, err := loadFiles(t, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.IDs) != 1 {
		t.Fatalf("expected one neuron, got %v", ds.IDs)
	}
	s, err := ds.Lookup(neuron.ID{Layer: 0, Index: 0})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := s.Steps(); !reflect.DeepEqual(got, []int{2000}) {
		t.Errorf("Steps = %v, want the series from results/pythia70m", got)
	}
}

func TestFileSource_MalformedOverrideKeepsEarlierSeries(t *testing.T) {
	root := t.TempDir()
	writeLines(t, root, "results/L0N0_pythia70m_ckpt_series.jsonl", goodStep1)
	writeLines(t, root, "results/pythia70m/L0N0_pythia70m_ckpt_series.jsonl", `{broken`)

	ds, err := loadFiles(t, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := ds.Checkpoint(neuron.ID{Layer: 0, Index: 0}, 1000); err != nil {
		t.Errorf("expected series from results/: %v", err)
	}
	if len(ds.LoadErrors) != 1 {
		t.Errorf("LoadErrors = %+v, want the malformed model-dir copy", ds.LoadErrors)
	}
}

func TestFileSource_MalformedFilesSkipped(t *testing.T) {
	root := t.TempDir()
	writeLines(t, root, "results/L0N0_pythia70m_ckpt_series.jsonl", goodStep1)
	writeLines(t, root, "results/L0N20_pythia70m_ckpt_series.jsonl", goodStep1, `{not json`)
	writeLines(t, root, "results/L0N40_pythia70m_ckpt_series.jsonl", `{"checkpoint_step": 5, "text_examples": ["x"]}`)
	writeLines(t, root, "results/L0N60_pythia70m_ckpt_series.jsonl", `{"checkpoint_step": 5, "text_examples": ["x"], "cluster_labels": [0, 1]}`)
	writeLines(t, root, "results/bogus_pythia70m_ckpt_series.jsonl", goodStep1)

	ds, err := loadFiles(t, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(ds.IDs, []neuron.ID{{Layer: 0, Index: 0}}) {
		t.Errorf("IDs = %v, want only L0N0", ds.IDs)
	}
	if len(ds.LoadErrors) != 4 {
		t.Fatalf("expected 4 load errors, got %+v", ds.LoadErrors)
	}

	byFile := make(map[string]LoadError)
	for _, le := range ds.LoadErrors {
		byFile[filepath.Base(le.File)] = le
	}
	if le := byFile["L0N20_pythia70m_ckpt_series.jsonl"]; le.Line != 2 {
		t.Errorf("bad JSON should be reported on line 2, got %+v", le)
	}
	if le := byFile["L0N40_pythia70m_ckpt_series.jsonl"]; !strings.Contains(le.Error, "cluster_labels") {
		t.Errorf("missing field error should name cluster_labels, got %+v", le)
	}
	if le := byFile["L0N60_pythia70m_ckpt_series.jsonl"]; !strings.Contains(le.Error, "cluster_labels has 2") {
		t.Errorf("length mismatch error expected, got %+v", le)
	}
	if le := byFile["bogus_pythia70m_ckpt_series.jsonl"]; !strings.Contains(le.Error, "invalid neuron id") {
		t.Errorf("bad neuron id error expected, got %+v", le)
	}
}

func TestFileSource_NoData(t *testing.T) {
	root := t.TempDir()
	writeLines(t, root, "results/L0N0_pythia70m_ckpt_series.jsonl", `garbage`)

	ds, err := loadFiles(t, root)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if ds == nil || len(ds.LoadErrors) != 1 {
		t.Errorf("dataset should still carry load errors, got %+v", ds)
	}
}

func TestFileSource_MissingRoot(t *testing.T) {
	_, err := loadFiles(t, filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestDataset_Errors(t *testing.T) {
	root := t.TempDir()
	writeLines(t, root, "results/L0N0_pythia70m_ckpt_series.jsonl", goodStep1)
	ds, err := loadFiles(t, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := ds.Lookup(neuron.ID{Layer: 5, Index: 5}); !errors.Is(err, ErrNeuronNotFound) {
		t.Errorf("Lookup missing neuron err = %v", err)
	}
	if _, err := ds.Checkpoint(neuron.ID{Layer: 0, Index: 0}, 999); !errors.Is(err, ErrCheckpointNotFound) {
		t.Errorf("Checkpoint missing step err = %v", err)
	}
	r, err := ds.Reference(neuron.ID{Layer: 0, Index: 0}, 143000)
	if err != nil || r.Step != 1000 {
		t.Errorf("Reference should fall back to last record, got %+v, %v", r, err)
	}
	if got := ds.SampleSteps(); !reflect.DeepEqual(got, []int{1000}) {
		t.Errorf("SampleSteps = %v", got)
	}
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"valid", goodStep1, ""},
		{"empty arrays", `{"checkpoint_step": 0, "text_examples": [], "cluster_labels": []}`, ""},
		{"missing step", `{"text_examples": [], "cluster_labels": []}`, "checkpoint_step"},
		{"missing texts", `{"checkpoint_step": 1, "cluster_labels": []}`, "text_examples"},
		{"wrong type", `{"checkpoint_step": "x", "text_examples": [], "cluster_labels": []}`, "cannot unmarshal"},
		{"bad label", `{"checkpoint_step": 1, "text_examples": ["a"], "cluster_labels": [null]}`, "cluster label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(tt.in))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteReadSeriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "L0N0_pythia70m_ckpt_series.jsonl")
	want := sampleRecords()
	if err := WriteSeriesFile(path, want); err != nil {
		t.Fatalf("WriteSeriesFile: %v", err)
	}
	got, err := ReadSeriesFile(path)
	if err != nil {
		t.Fatalf("ReadSeriesFile: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestMalformedRecordError(t *testing.T) {
	inner := errors.New("boom")
	err := &MalformedRecordError{File: "f.jsonl", Line: 3, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("MalformedRecordError should unwrap")
	}
	if err.Error() != "malformed record in f.jsonl line 3: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
