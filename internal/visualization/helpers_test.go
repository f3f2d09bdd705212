package visualization

import (
	"testing"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

func labels(ls ...string) []neuron.Label {
	out := make([]neuron.Label, len(ls))
	for i, l := range ls {
		out[i] = neuron.Label(l)
	}
	return out
}

func testRecords() []neuron.Record {
	return []neuron.Record{
		{Step: 2000, TextExamples: []string{"dog ran", "cat sat", "dog sat"}, ClusterLabels: labels("1", "0", "1")},
		{Step: 1000, TextExamples: []string{"x y"}, ClusterLabels: labels("0")},
		{Step: 143000, TextExamples: []string{"the cat sat", "a cat ran"}, ClusterLabels: labels("0", "0")},
	}
}

// testServer builds a dashboard over an in-memory dataset holding L0N0 and
// L1N20 of the first configured model.
func testServer(t *testing.T) (*Server, *store.MemorySource) {
	t.Helper()
	cfg := config.Default()
	src := store.NewMemorySource()
	src.Add(cfg.Models[0].Key, neuron.ID{Layer: 0, Index: 0}, testRecords()...)
	src.Add(cfg.Models[0].Key, neuron.ID{Layer: 1, Index: 20}, testRecords()[:2]...)
	return NewServer(store.NewCache(src), cfg, logging.Discard()), src
}

func testDataset() *store.Dataset {
	ds := store.NewDataset(config.DefaultModels()[0])
	ds.Add(neuron.NewSeries(neuron.ID{Layer: 0, Index: 0}, testRecords()))
	ds.Add(neuron.NewSeries(neuron.ID{Layer: 1, Index: 20}, testRecords()[:2]))
	return ds
}
