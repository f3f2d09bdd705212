// Package store loads neuron checkpoint series for a model variant from
// JSONL files or a packed SQLite bundle, and memoizes loaded datasets.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

var (
	// ErrNoData means no series could be discovered for a model variant.
	ErrNoData = errors.New("no neuron data found")

	// ErrNeuronNotFound means the dataset has no series for a neuron.
	ErrNeuronNotFound = errors.New("no data available for neuron")

	// ErrCheckpointNotFound means a series has no record at a step.
	ErrCheckpointNotFound = errors.New("no data available for checkpoint")

	// ErrUnknownModel means a model name matched no configured variant.
	ErrUnknownModel = errors.New("unknown model")
)

// MalformedRecordError reports a series record that could not be decoded
// or violates the record invariants.
type MalformedRecordError struct {
	File string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record in %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed record in %s: %v", e.File, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// LoadError represents a file skipped while loading a dataset.
type LoadError struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error"`
}

// Source loads the dataset for one model variant.
type Source interface {
	// Load returns every series discoverable for model. When nothing at all
	// can be loaded it returns the (empty) dataset together with an error
	// wrapping ErrNoData, so callers can still report LoadErrors.
	Load(ctx context.Context, model config.ModelVariant) (*Dataset, error)

	Close() error
}

// Dataset is every loaded series of one model variant.
type Dataset struct {
	Model      config.ModelVariant
	Series     map[neuron.ID]neuron.Series
	IDs        []neuron.ID
	LoadErrors []LoadError
}

// NewDataset creates an empty dataset for model.
func NewDataset(model config.ModelVariant) *Dataset {
	return &Dataset{
		Model:      model,
		Series:     make(map[neuron.ID]neuron.Series),
		LoadErrors: make([]LoadError, 0),
	}
}

// Add stores a series, replacing any previous one for the same neuron.
func (d *Dataset) Add(s neuron.Series) {
	if _, exists := d.Series[s.ID]; !exists {
		d.IDs = append(d.IDs, s.ID)
		neuron.SortIDs(d.IDs)
	}
	d.Series[s.ID] = s
}

// Has reports whether the dataset contains a series for id.
func (d *Dataset) Has(id neuron.ID) bool {
	_, ok := d.Series[id]
	return ok
}

// Lookup returns the series for id.
func (d *Dataset) Lookup(id neuron.ID) (neuron.Series, error) {
	s, ok := d.Series[id]
	if !ok {
		return neuron.Series{}, fmt.Errorf("%w %s", ErrNeuronNotFound, id)
	}
	return s, nil
}

// Checkpoint returns the record of neuron id at exactly step.
func (d *Dataset) Checkpoint(id neuron.ID, step int) (neuron.Record, error) {
	s, err := d.Lookup(id)
	if err != nil {
		return neuron.Record{}, err
	}
	r, ok := s.Find(step)
	if !ok {
		return neuron.Record{}, fmt.Errorf("%w %d of %s", ErrCheckpointNotFound, step, id)
	}
	return r, nil
}

// Reference returns the record of neuron id at step, or its last record.
func (d *Dataset) Reference(id neuron.ID, step int) (neuron.Record, error) {
	s, err := d.Lookup(id)
	if err != nil {
		return neuron.Record{}, err
	}
	r, ok := s.Reference(step)
	if !ok {
		return neuron.Record{}, fmt.Errorf("%w %d of %s", ErrCheckpointNotFound, step, id)
	}
	return r, nil
}

// SampleSteps returns the checkpoint steps of the first neuron, which the
// static export uses to size its checkpoint slider.
func (d *Dataset) SampleSteps() []int {
	if len(d.IDs) == 0 {
		return nil
	}
	return d.Series[d.IDs[0]].Steps()
}

// recordError appends a LoadError derived from err and logs it.
func (d *Dataset) recordError(logger *slog.Logger, file string, err error) {
	le := LoadError{File: file, Error: err.Error()}
	var mre *MalformedRecordError
	if errors.As(err, &mre) {
		le.Line = mre.Line
		le.Error = mre.Err.Error()
	}
	d.LoadErrors = append(d.LoadErrors, le)
	if logger != nil {
		logger.Warn("skipping series file", "file", file, "line", le.Line, "error", le.Error)
	}
}

// Open returns the Source configured by data: a SQLite bundle when
// data.Source is set, otherwise a JSONL directory scan under data.Root.
func Open(data config.DataConfig, logger *slog.Logger) (Source, error) {
	if strings.TrimSpace(data.Source) != "" {
		return OpenSQLiteSource(data.Source, logger)
	}
	return NewFileSource(data.Root, logger), nil
}
