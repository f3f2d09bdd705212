// Package neuron defines the checkpoint series data model: neuron identifiers,
// per-checkpoint cluster records and the clusters derived from them.
package neuron

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ID identifies a single tracked neuron by layer and in-layer index.
type ID struct {
	Layer int `json:"layer"`
	Index int `json:"index"`
}

var idPattern = regexp.MustCompile(`^L(\d+)N(\d+)$`)

// ParseID parses an identifier of the form "L{layer}N{index}".
func ParseID(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ID{}, fmt.Errorf("invalid neuron id %q (want L{layer}N{index})", s)
	}
	layer, err := strconv.Atoi(m[1])
	if err != nil {
		return ID{}, fmt.Errorf("invalid layer in %q: %w", s, err)
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return ID{}, fmt.Errorf("invalid index in %q: %w", s, err)
	}
	return ID{Layer: layer, Index: index}, nil
}

// String returns the canonical "L{layer}N{index}" form.
func (id ID) String() string {
	return fmt.Sprintf("L%dN%d", id.Layer, id.Index)
}

// Compare orders ids by layer, then index.
func (id ID) Compare(other ID) int {
	if c := cmp.Compare(id.Layer, other.Layer); c != 0 {
		return c
	}
	return cmp.Compare(id.Index, other.Index)
}

// SortIDs sorts ids in place by (layer, index).
func SortIDs(ids []ID) {
	slices.SortFunc(ids, ID.Compare)
}

// Label is a cluster identifier. Upstream data uses integers or
// integer-like strings; both decode to the same Label.
type Label string

// UnmarshalJSON accepts a JSON number or a JSON string.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("cluster label must be a number or string, got null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cluster label must be a number or string: %w", err)
	}
	*l = Label(n.String())
	return nil
}

// MarshalJSON emits integer-like labels as numbers and everything else as strings.
func (l Label) MarshalJSON() ([]byte, error) {
	if _, ok := l.Int(); ok {
		return []byte(l), nil
	}
	return json.Marshal(string(l))
}

// Int reports the label's integer value, if it has one.
func (l Label) Int() (int, bool) {
	n, err := strconv.Atoi(string(l))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Record is one snapshot of a neuron's clustering at a training checkpoint.
// TextExamples and ClusterLabels are positionally paired.
type Record struct {
	Step          int      `json:"checkpoint_step"`
	TextExamples  []string `json:"text_examples"`
	ClusterLabels []Label  `json:"cluster_labels"`
}

// Validate checks the pairing invariant between examples and labels.
func (r Record) Validate() error {
	if len(r.TextExamples) != len(r.ClusterLabels) {
		return fmt.Errorf("text_examples has %d entries but cluster_labels has %d",
			len(r.TextExamples), len(r.ClusterLabels))
	}
	return nil
}

// Cluster is a group of example texts sharing a label within one record.
type Cluster struct {
	Label Label    `json:"label"`
	Texts []string `json:"texts"`
}

// Group partitions a record's examples by label. Clusters appear in the
// order their label is first seen, and each keeps its examples in record order.
func Group(r Record) []Cluster {
	var clusters []Cluster
	pos := make(map[Label]int)
	n := min(len(r.TextExamples), len(r.ClusterLabels))
	for i := 0; i < n; i++ {
		label := r.ClusterLabels[i]
		idx, ok := pos[label]
		if !ok {
			idx = len(clusters)
			pos[label] = idx
			clusters = append(clusters, Cluster{Label: label})
		}
		clusters[idx].Texts = append(clusters[idx].Texts, r.TextExamples[i])
	}
	return clusters
}

// Series is the ordered-by-step sequence of records for one neuron.
type Series struct {
	ID      ID       `json:"id"`
	Records []Record `json:"records"`
}

// NewSeries builds a series, ordering records by ascending step.
func NewSeries(id ID, records []Record) Series {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int { return cmp.Compare(a.Step, b.Step) })
	return Series{ID: id, Records: sorted}
}

// Steps returns the checkpoint steps present in the series, ascending.
func (s Series) Steps() []int {
	steps := make([]int, 0, len(s.Records))
	for _, r := range s.Records {
		steps = append(steps, r.Step)
	}
	slices.Sort(steps)
	return steps
}

// Find returns the record at exactly step.
func (s Series) Find(step int) (Record, bool) {
	for _, r := range s.Records {
		if r.Step == step {
			return r, true
		}
	}
	return Record{}, false
}

// Reference returns the record at step, falling back to the last record
// when the series has no checkpoint at that step.
func (s Series) Reference(step int) (Record, bool) {
	if r, ok := s.Find(step); ok {
		return r, true
	}
	if len(s.Records) == 0 {
		return Record{}, false
	}
	return s.Records[len(s.Records)-1], true
}
