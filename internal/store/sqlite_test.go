package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

func TestPack_RoundTrip(t *testing.T) {
	ctx := context.Background()
	model := testModel()

	ds := NewDataset(model)
	ds.Add(neuron.NewSeries(neuron.ID{Layer: 1, Index: 20}, sampleRecords()))
	ds.Add(neuron.NewSeries(neuron.ID{Layer: 0, Index: 0}, sampleRecords()[:1]))

	path := filepath.Join(t.TempDir(), "bundle", "pythia.db")
	n, err := Pack(ctx, path, ds)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if n != 3 {
		t.Errorf("Pack wrote %d rows, want 3", n)
	}

	src, err := OpenSQLiteSource(path, logging.Discard())
	if err != nil {
		t.Fatalf("OpenSQLiteSource: %v", err)
	}
	defer src.Close()

	got, err := src.Load(ctx, model)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.IDs, []neuron.ID{{Layer: 0, Index: 0}, {Layer: 1, Index: 20}}) {
		t.Errorf("IDs = %v", got.IDs)
	}
	s, _ := got.Lookup(neuron.ID{Layer: 1, Index: 20})
	if !reflect.DeepEqual(s.Records, sampleRecords()) {
		t.Errorf("records = %+v, want %+v", s.Records, sampleRecords())
	}

	// A model absent from the bundle has no data.
	other := config.DefaultModels()[1]
	if _, err := src.Load(ctx, other); !errors.Is(err, ErrNoData) {
		t.Errorf("Load(other) err = %v, want ErrNoData", err)
	}
}

func TestPack_ReplacesOnlySameModel(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pythia.db")
	small, large := config.DefaultModels()[0], config.DefaultModels()[1]

	dsLarge := NewDataset(large)
	dsLarge.Add(neuron.NewSeries(neuron.ID{Layer: 11, Index: 60}, sampleRecords()))
	if _, err := Pack(ctx, path, dsLarge); err != nil {
		t.Fatalf("Pack large: %v", err)
	}

	for _, id := range []neuron.ID{{Layer: 0, Index: 0}, {Layer: 0, Index: 20}} {
		ds := NewDataset(small)
		ds.Add(neuron.NewSeries(id, sampleRecords()))
		if _, err := Pack(ctx, path, ds); err != nil {
			t.Fatalf("Pack small: %v", err)
		}
	}

	src, err := OpenSQLiteSource(path, logging.Discard())
	if err != nil {
		t.Fatalf("OpenSQLiteSource: %v", err)
	}
	defer src.Close()

	gotSmall, err := src.Load(ctx, small)
	if err != nil {
		t.Fatalf("Load small: %v", err)
	}
	if !reflect.DeepEqual(gotSmall.IDs, []neuron.ID{{Layer: 0, Index: 20}}) {
		t.Errorf("small IDs = %v, want only the last pack", gotSmall.IDs)
	}
	gotLarge, err := src.Load(ctx, large)
	if err != nil {
		t.Fatalf("Load large: %v", err)
	}
	if len(gotLarge.IDs) != 1 {
		t.Errorf("large model rows should survive, got %v", gotLarge.IDs)
	}
}

func TestSQLiteSource_MalformedRow(t *testing.T) {
	ctx := context.Background()
	model := testModel()
	path := filepath.Join(t.TempDir(), "pythia.db")

	ds := NewDataset(model)
	ds.Add(neuron.NewSeries(neuron.ID{Layer: 0, Index: 0}, sampleRecords()))
	ds.Add(neuron.NewSeries(neuron.ID{Layer: 0, Index: 20}, sampleRecords()))
	if _, err := Pack(ctx, path, ds); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`UPDATE checkpoints SET cluster_labels = '[0]' WHERE neuron = 20 AND step = 1000`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}
	db.Close()

	src, err := OpenSQLiteSource(path, logging.Discard())
	if err != nil {
		t.Fatalf("OpenSQLiteSource: %v", err)
	}
	defer src.Close()

	got, err := src.Load(ctx, model)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.IDs, []neuron.ID{{Layer: 0, Index: 0}}) {
		t.Errorf("IDs = %v, corrupted neuron should be skipped", got.IDs)
	}
	if len(got.LoadErrors) != 1 {
		t.Errorf("expected 1 load error, got %+v", got.LoadErrors)
	}
}

func TestOpenSQLiteSource_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenSQLiteSource(filepath.Join(dir, "missing.db"), nil); err == nil {
		t.Error("expected error for missing bundle")
	}

	plain := filepath.Join(dir, "plain.db")
	db, err := sql.Open("sqlite", plain)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE other (x INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	if _, err := OpenSQLiteSource(plain, nil); err == nil {
		t.Error("expected error for a database that is not a bundle")
	}
}

func TestInitSchema_RejectsNewerVersion(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "v.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema should be idempotent: %v", err)
	}
	if _, err := db.Exec(`UPDATE meta SET value = '99' WHERE key = 'schema_version'`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := InitSchema(ctx, db); err == nil {
		t.Error("expected error for newer schema version")
	}
}

func TestOpen(t *testing.T) {
	src, err := Open(config.DataConfig{Root: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := src.(*FileSource); !ok {
		t.Errorf("Open without Source = %T, want *FileSource", src)
	}

	if _, err := Open(config.DataConfig{Root: ".", Source: filepath.Join(t.TempDir(), "none.db")}, nil); err == nil {
		t.Error("Open with missing bundle should fail")
	}
}
