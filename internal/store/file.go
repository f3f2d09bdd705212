package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

// maxLineBytes bounds a single JSONL record; records carry every example
// text of a checkpoint and easily exceed bufio's 64KiB default.
const maxLineBytes = 32 << 20

// FileSource discovers series files by scanning each variant's search
// directories under a data root.
type FileSource struct {
	root   string
	logger *slog.Logger
}

// NewFileSource creates a FileSource rooted at root.
func NewFileSource(root string, logger *slog.Logger) *FileSource {
	return &FileSource{root: root, logger: logging.Component(logger, "store")}
}

// Root returns the data root directory.
func (s *FileSource) Root() string {
	return s.root
}

// SeriesFileName returns the on-disk name of a neuron's series for model.
func SeriesFileName(id neuron.ID, model config.ModelVariant) string {
	return id.String() + model.Suffix()
}

// Load scans the model's search directories in order. A neuron found in
// more than one directory takes the series from the last one that loads,
// so a model-specific directory listed after a shared one wins. Malformed
// files are recorded in LoadErrors and skipped.
func (s *FileSource) Load(ctx context.Context, model config.ModelVariant) (*Dataset, error) {
	ds := NewDataset(model)
	suffix := model.Suffix()

	for _, dir := range model.SearchDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.root, dir)
		entries, err := os.ReadDir(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.logger.Debug("search dir missing", "dir", path)
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, suffix) {
				continue
			}
			file := filepath.Join(path, name)

			id, err := neuron.ParseID(strings.TrimSuffix(name, suffix))
			if err != nil {
				ds.recordError(s.logger, file, err)
				continue
			}
			records, err := ReadSeriesFile(file)
			if err != nil {
				ds.recordError(s.logger, file, err)
				continue
			}
			if ds.Has(id) {
				s.logger.Debug("series overrides earlier search dir", "neuron", id, "file", file)
			}
			ds.Add(neuron.NewSeries(id, records))
			s.logger.Log(ctx, logging.LevelTrace, "series loaded", "neuron", id, "records", len(records), "file", file)
		}
	}

	s.logger.Info("dataset loaded", "model", model.Key, "neurons", len(ds.IDs), "errors", len(ds.LoadErrors))

	if len(ds.IDs) == 0 {
		return ds, fmt.Errorf("%w for %s under %s", ErrNoData, model.Name, s.root)
	}
	return ds, nil
}

// Close is a no-op; FileSource holds no open resources.
func (s *FileSource) Close() error {
	return nil
}

// rawRecord mirrors neuron.Record with pointers so that missing required
// fields can be told apart from empty ones.
type rawRecord struct {
	Step          *int            `json:"checkpoint_step"`
	TextExamples  *[]string       `json:"text_examples"`
	ClusterLabels *[]neuron.Label `json:"cluster_labels"`
}

// DecodeRecord parses one JSON record and checks its invariants.
func DecodeRecord(data []byte) (neuron.Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return neuron.Record{}, err
	}
	switch {
	case raw.Step == nil:
		return neuron.Record{}, errors.New("missing required field checkpoint_step")
	case raw.TextExamples == nil:
		return neuron.Record{}, errors.New("missing required field text_examples")
	case raw.ClusterLabels == nil:
		return neuron.Record{}, errors.New("missing required field cluster_labels")
	}
	r := neuron.Record{
		Step:          *raw.Step,
		TextExamples:  *raw.TextExamples,
		ClusterLabels: *raw.ClusterLabels,
	}
	if err := r.Validate(); err != nil {
		return neuron.Record{}, err
	}
	return r, nil
}

// ReadSeriesFile reads a newline-delimited JSON series. Blank lines are
// ignored; the first bad record fails the whole file with a
// *MalformedRecordError.
func ReadSeriesFile(path string) ([]neuron.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []neuron.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, err := DecodeRecord([]byte(line))
		if err != nil {
			return nil, &MalformedRecordError{File: path, Line: lineNum, Err: err}
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, &MalformedRecordError{File: path, Line: lineNum + 1, Err: err}
	}
	return records, nil
}

// WriteSeriesFile writes records as newline-delimited JSON.
func WriteSeriesFile(path string, records []neuron.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return fmt.Errorf("encoding step %d: %w", r.Step, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
