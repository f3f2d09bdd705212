package store

import (
	"context"
	"errors"
	"testing"

	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	model := testModel()

	m := NewMemorySource()
	if _, err := m.Load(ctx, model); !errors.Is(err, ErrNoData) {
		t.Errorf("empty Load err = %v, want ErrNoData", err)
	}

	m.Add(model.Key, neuron.ID{Layer: 2, Index: 40}, sampleRecords()...)
	m.Add(model.Key, neuron.ID{Layer: 0, Index: 20}, sampleRecords()...)
	m.Add("pythia160m", neuron.ID{Layer: 9, Index: 9}, sampleRecords()...)

	ds, err := m.Load(ctx, model)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.IDs) != 2 || ds.IDs[0] != (neuron.ID{Layer: 0, Index: 20}) {
		t.Errorf("IDs = %v, want sorted [L0N20 L2N40]", ds.IDs)
	}
	if m.Loads() != 2 {
		t.Errorf("Loads() = %d, want 2", m.Loads())
	}
}

func TestMemorySource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemorySource().Load(ctx, testModel()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
