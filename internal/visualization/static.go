package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/anon96881/PythiaEvolution/internal/metrics"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

// defaultSliderStep is used when the sample neuron has a single checkpoint.
const defaultSliderStep = 1000

// staticNeuron is the embedded payload of one neuron. Panels hold every
// checkpoint un-emphasized; Reference is the emphasized reference panel.
type staticNeuron struct {
	Steps     []int         `json:"steps"`
	Panels    map[int]Panel `json:"panels"`
	Reference Panel         `json:"reference"`
}

type staticPayload struct {
	Model   string                  `json:"model"`
	IDs     []string                `json:"ids"`
	Neurons map[string]staticNeuron `json:"neurons"`
}

// staticTemplateData holds data passed to the static page template.
// DataJSON is pre-sanitized JSON (via json.HTMLEscape) safe for inline <script>.
type staticTemplateData struct {
	ModelName     string
	MaxLayer      int
	MaxNeuron     int
	NeuronStep    int
	SliderMin     int
	SliderMax     int
	SliderStep    int
	ReferenceStep int
	DataJSON      template.JS
}

// StaticSummary describes what a static export contains.
type StaticSummary struct {
	Neurons   int
	FirstStep int
	LastStep  int
}

// RenderStatic produces a self-contained HTML page for every series in ds.
// Highlighting is computed here, so the page's script only lays out panels.
func RenderStatic(ds *store.Dataset, opts Options, referenceStep int) ([]byte, StaticSummary, error) {
	if ds == nil || len(ds.IDs) == 0 {
		return nil, StaticSummary{}, store.ErrNoData
	}

	// The export shows every example.
	opts.MaxExamples = 0

	payload := staticPayload{
		Model:   ds.Model.Key,
		IDs:     make([]string, 0, len(ds.IDs)),
		Neurons: make(map[string]staticNeuron, len(ds.IDs)),
	}
	for _, id := range ds.IDs {
		s := ds.Series[id]
		payload.IDs = append(payload.IDs, id.String())
		payload.Neurons[id.String()] = buildStaticNeuron(s, opts, referenceStep)
	}

	steps := ds.SampleSteps()
	summary := StaticSummary{Neurons: len(ds.IDs)}
	data := staticTemplateData{
		ModelName:     ds.Model.Name,
		MaxLayer:      ds.Model.MaxLayer,
		MaxNeuron:     ds.Model.MaxNeuron,
		NeuronStep:    ds.Model.NeuronStep,
		SliderStep:    defaultSliderStep,
		ReferenceStep: referenceStep,
	}
	if len(steps) > 0 {
		data.SliderMin, data.SliderMax = steps[0], steps[len(steps)-1]
		summary.FirstStep, summary.LastStep = steps[0], steps[len(steps)-1]
	}
	if len(steps) > 1 {
		data.SliderStep = steps[1] - steps[0]
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, summary, fmt.Errorf("marshal neuron data: %w", err)
	}

	// Escape for safe inline <script> embedding: json.HTMLEscape converts
	// <, >, & to unicode escapes so example text cannot close the script.
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, payloadJSON)
	data.DataJSON = template.JS(escaped.String()) // #nosec G203

	tmpl, err := parsePage("static")
	if err != nil {
		return nil, summary, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, summary, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), summary, nil
}

func buildStaticNeuron(s neuron.Series, opts Options, referenceStep int) staticNeuron {
	sn := staticNeuron{
		Steps:  s.Steps(),
		Panels: make(map[int]Panel, len(s.Records)),
	}
	for _, r := range s.Records {
		sn.Panels[r.Step] = BuildPanel(r, false, opts)
		metrics.ObservePanel("static", "ok")
	}
	if ref, ok := s.Reference(referenceStep); ok {
		sn.Reference = BuildPanel(ref, true, opts)
		metrics.ObservePanel("static", "ok")
	}
	return sn
}
