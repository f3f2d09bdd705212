package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/highlight"
	"github.com/anon96881/PythiaEvolution/internal/metrics"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
	"github.com/anon96881/PythiaEvolution/internal/pathutil"
	"github.com/anon96881/PythiaEvolution/internal/store"
	"github.com/anon96881/PythiaEvolution/internal/visualization"
)

const neuronURIPrefix = "pythiaevo://neurons/"

// registerTools registers all neuron tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuron_list",
		Description: "List neurons with checkpoint data for a model variant",
	}, s.handleNeuronList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuron_checkpoints",
		Description: "List the checkpoint steps available for one neuron",
	}, s.handleNeuronCheckpoints)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuron_panel",
		Description: "Compare a neuron's clusters at a checkpoint against the reference checkpoint, with common-term highlights",
	}, s.handleNeuronPanel)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "common_terms",
		Description: "Find the most common words and word fragments of a group of texts, or of each cluster of a neuron checkpoint",
	}, s.handleCommonTerms)
}

// registerResources registers the neuron summary resource template.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: neuronURIPrefix + "{model}/{id}",
		Name:        "pythiaevo-neuron",
		Description: "Summary of one neuron's clustering across checkpoints, with the reference checkpoint's common terms.",
		MIMEType:    "text/markdown",
	}, s.handleNeuronResource)
}

// model resolves a model argument, defaulting to the first configured variant.
func (s *Server) model(name string) (config.ModelVariant, error) {
	if name == "" {
		return s.app.Models[0], nil
	}
	m, ok := s.app.Model(name)
	if !ok {
		return config.ModelVariant{}, fmt.Errorf("%w %q", store.ErrUnknownModel, name)
	}
	return m, nil
}

// series loads the dataset of model and looks up the neuron id.
func (s *Server) series(ctx context.Context, model, id string) (*store.Dataset, neuron.Series, error) {
	m, err := s.model(model)
	if err != nil {
		return nil, neuron.Series{}, err
	}
	nid, err := neuron.ParseID(id)
	if err != nil {
		return nil, neuron.Series{}, err
	}
	ds, err := s.cache.Load(ctx, m)
	if err != nil {
		return nil, neuron.Series{}, err
	}
	ser, err := ds.Lookup(nid)
	if err != nil {
		return nil, neuron.Series{}, err
	}
	return ds, ser, nil
}

// handleNeuronList implements the neuron_list tool.
func (s *Server) handleNeuronList(ctx context.Context, req *sdk.CallToolRequest, args NeuronListInput) (_ *sdk.CallToolResult, _ NeuronListOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("neuron_list", start, retErr, "model", args.Model) }()

	if err := s.limiter.Check("neuron_list"); err != nil {
		return nil, NeuronListOutput{}, err
	}

	m, err := s.model(args.Model)
	if err != nil {
		return nil, NeuronListOutput{}, err
	}

	ds, err := s.cache.Load(ctx, m)
	if err != nil && !errors.Is(err, store.ErrNoData) {
		return nil, NeuronListOutput{}, fmt.Errorf("failed to load %s: %w", m.Name, err)
	}

	out := NeuronListOutput{
		Model:      m.Key,
		Neurons:    make([]string, 0),
		LoadErrors: make([]LoadErrorItem, 0),
	}
	if ds != nil {
		for _, id := range ds.IDs {
			out.Neurons = append(out.Neurons, id.String())
		}
		for _, le := range ds.LoadErrors {
			out.LoadErrors = append(out.LoadErrors, LoadErrorItem{File: pathutil.DisplayPath(s.app.Data.Root, le.File), Line: le.Line, Error: le.Error})
		}
	}
	out.Count = len(out.Neurons)
	return nil, out, nil
}

// handleNeuronCheckpoints implements the neuron_checkpoints tool.
func (s *Server) handleNeuronCheckpoints(ctx context.Context, req *sdk.CallToolRequest, args NeuronCheckpointsInput) (_ *sdk.CallToolResult, _ NeuronCheckpointsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neuron_checkpoints", start, retErr, "model", args.Model, "neuron", args.Neuron)
	}()

	if err := s.limiter.Check("neuron_checkpoints"); err != nil {
		return nil, NeuronCheckpointsOutput{}, err
	}

	_, ser, err := s.series(ctx, args.Model, args.Neuron)
	if err != nil {
		return nil, NeuronCheckpointsOutput{}, err
	}

	out := NeuronCheckpointsOutput{
		Neuron: ser.ID.String(),
		Steps:  ser.Steps(),
	}
	if ref, ok := ser.Reference(s.app.Render.ReferenceStep); ok {
		out.ReferenceStep = ref.Step
	}
	return nil, out, nil
}

// handleNeuronPanel implements the neuron_panel tool.
func (s *Server) handleNeuronPanel(ctx context.Context, req *sdk.CallToolRequest, args NeuronPanelInput) (_ *sdk.CallToolResult, _ NeuronPanelOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neuron_panel", start, retErr, "model", args.Model, "neuron", args.Neuron, "step", stepAttr(args.Step))
	}()

	if err := s.limiter.Check("neuron_panel"); err != nil {
		return nil, NeuronPanelOutput{}, err
	}

	_, ser, err := s.series(ctx, args.Model, args.Neuron)
	if err != nil {
		return nil, NeuronPanelOutput{}, err
	}

	opts := visualization.OptionsFrom(s.app.Render)
	opts.MaxExamples = 0

	out := NeuronPanelOutput{
		Neuron:     ser.ID.String(),
		Checkpoint: make([]ClusterItem, 0),
		Reference:  make([]ClusterItem, 0),
	}
	switch {
	case args.Step != nil:
		out.Step = *args.Step
	case len(ser.Records) > 0:
		out.Step = ser.Records[0].Step
	}

	if rec, ok := ser.Find(out.Step); ok {
		out.Checkpoint = clusterItems(visualization.BuildPanel(rec, false, opts))
		metrics.ObservePanel("mcp", "ok")
	} else {
		out.CheckpointError = "No data available for this checkpoint"
		metrics.ObservePanel("mcp", "missing_checkpoint")
	}

	if rec, ok := ser.Reference(s.app.Render.ReferenceStep); ok {
		out.ReferenceStep = rec.Step
		out.Reference = clusterItems(visualization.BuildPanel(rec, true, opts))
		metrics.ObservePanel("mcp", "ok")
	}
	return nil, out, nil
}

// handleCommonTerms implements the common_terms tool.
func (s *Server) handleCommonTerms(ctx context.Context, req *sdk.CallToolRequest, args CommonTermsInput) (_ *sdk.CallToolResult, _ CommonTermsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("common_terms", start, retErr, "texts", len(args.Texts), "neuron", args.Neuron, "step", stepAttr(args.Step))
	}()

	if err := s.limiter.Check("common_terms"); err != nil {
		return nil, CommonTermsOutput{}, err
	}

	minLen, topN := args.MinLength, args.TopN
	if minLen <= 0 {
		minLen = s.app.Render.MinTermLength
	}
	if topN <= 0 {
		topN = s.app.Render.TopTerms
	}

	out := CommonTermsOutput{Groups: make([]TermGroup, 0)}
	if len(args.Texts) > 0 {
		out.Groups = append(out.Groups, TermGroup{
			Texts: len(args.Texts),
			Terms: highlight.CommonTerms(args.Texts, minLen, topN),
		})
		return nil, out, nil
	}

	if args.Neuron == "" {
		return nil, CommonTermsOutput{}, fmt.Errorf("either texts or neuron is required")
	}
	_, ser, err := s.series(ctx, args.Model, args.Neuron)
	if err != nil {
		return nil, CommonTermsOutput{}, err
	}

	step := s.app.Render.ReferenceStep
	var rec neuron.Record
	var ok bool
	if args.Step == nil {
		rec, ok = ser.Reference(step)
	} else {
		step = *args.Step
		rec, ok = ser.Find(step)
	}
	if !ok {
		return nil, CommonTermsOutput{}, fmt.Errorf("%w %d of %s", store.ErrCheckpointNotFound, step, ser.ID)
	}

	for _, c := range neuron.Group(rec) {
		out.Groups = append(out.Groups, TermGroup{
			Label: string(c.Label),
			Texts: len(c.Texts),
			Terms: highlight.CommonTerms(c.Texts, minLen, topN),
		})
	}
	return nil, out, nil
}

// handleNeuronResource returns a markdown summary of one neuron.
// URI format: pythiaevo://neurons/{model}/{id}
func (s *Server) handleNeuronResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	rest, ok := strings.CutPrefix(uri, neuronURIPrefix)
	if !ok {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	model, id, ok := strings.Cut(rest, "/")
	if !ok || model == "" || id == "" {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}

	ds, ser, err := s.series(ctx, model, id)
	if err != nil {
		if errors.Is(err, store.ErrNeuronNotFound) || errors.Is(err, store.ErrNoData) {
			return nil, sdk.ResourceNotFoundError(uri)
		}
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Neuron %s (%s)\n\n", ser.ID, ds.Model.Name)
	fmt.Fprintf(&sb, "**Checkpoints:** %d\n\n", len(ser.Records))

	sb.WriteString("| Step | Examples | Clusters |\n|---|---|---|\n")
	for _, r := range ser.Records {
		fmt.Fprintf(&sb, "| %d | %d | %d |\n", r.Step, len(r.TextExamples), len(neuron.Group(r)))
	}

	if ref, ok := ser.Reference(s.app.Render.ReferenceStep); ok {
		fmt.Fprintf(&sb, "\n## Reference checkpoint %d\n\n", ref.Step)
		for _, c := range neuron.Group(ref) {
			terms := highlight.CommonTerms(c.Texts, s.app.Render.MinTermLength, s.app.Render.TopTerms)
			fmt.Fprintf(&sb, "- **Cluster %s** (%d examples): %s\n", c.Label, len(c.Texts), strings.Join(terms, ", "))
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// clusterItems flattens a panel for agents: highlighted tokens are wrapped
// in brackets and tokens are joined with single spaces.
func clusterItems(p visualization.Panel) []ClusterItem {
	items := make([]ClusterItem, 0, len(p.Clusters))
	for _, c := range p.Clusters {
		item := ClusterItem{
			Label:    string(c.Label),
			Total:    c.Total,
			Terms:    make([]string, 0, len(c.Terms)),
			Examples: make([]string, 0, len(c.Examples)),
		}
		item.Terms = append(item.Terms, c.Terms...)
		for _, ex := range c.Examples {
			parts := make([]string, len(ex.Tokens))
			for i, tok := range ex.Tokens {
				if tok.High {
					parts[i] = "[" + tok.Text + "]"
				} else {
					parts[i] = tok.Text
				}
			}
			item.Examples = append(item.Examples, strings.Join(parts, " "))
		}
		items = append(items, item)
	}
	return items
}

// stepAttr renders an optional step for the audit log.
func stepAttr(step *int) any {
	if step == nil {
		return "default"
	}
	return *step
}
