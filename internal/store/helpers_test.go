package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

func testModel() config.ModelVariant {
	return config.DefaultModels()[0]
}

// writeLines writes a JSONL file under root, creating directories.
func writeLines(t *testing.T, root, rel string, lines ...string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func loadFiles(t *testing.T, root string) (*Dataset, error) {
	t.Helper()
	return NewFileSource(root, logging.Discard()).Load(t.Context(), testModel())
}

func sampleRecords() []neuron.Record {
	return []neuron.Record{
		{Step: 1000, TextExamples: []string{"the cat sat", "a dog ran"}, ClusterLabels: []neuron.Label{"0", "1"}},
		{Step: 143000, TextExamples: []string{"the cat sat", "a cat ran"}, ClusterLabels: []neuron.Label{"0", "0"}},
	}
}
