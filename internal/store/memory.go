package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

// MemorySource serves series held in memory, keyed by model key.
// Used by tests and by callers that build datasets programmatically.
type MemorySource struct {
	mu     sync.RWMutex
	series map[string][]neuron.Series
	loads  int
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{series: make(map[string][]neuron.Series)}
}

// Add registers a series for the model with the given key.
func (m *MemorySource) Add(modelKey string, id neuron.ID, records ...neuron.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[modelKey] = append(m.series[modelKey], neuron.NewSeries(id, records))
}

// Loads returns how many times Load has been called.
func (m *MemorySource) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// Load returns the series registered for model.Key.
func (m *MemorySource) Load(ctx context.Context, model config.ModelVariant) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++

	ds := NewDataset(model)
	for _, s := range m.series[model.Key] {
		ds.Add(s)
	}
	if len(ds.IDs) == 0 {
		return ds, fmt.Errorf("%w for %s", ErrNoData, model.Name)
	}
	return ds, nil
}

// Close is a no-op.
func (m *MemorySource) Close() error {
	return nil
}
