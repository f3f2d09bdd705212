package mcp

// NeuronListInput defines the input for the neuron_list tool.
type NeuronListInput struct {
	Model string `json:"model,omitempty" jsonschema:"Model variant key or name (default: first configured model)"`
}

// NeuronListOutput defines the output for the neuron_list tool.
type NeuronListOutput struct {
	Model      string          `json:"model" jsonschema:"Model variant key"`
	Neurons    []string        `json:"neurons" jsonschema:"Neuron ids ordered by layer then index"`
	Count      int             `json:"count" jsonschema:"Number of neurons with data"`
	LoadErrors []LoadErrorItem `json:"load_errors" jsonschema:"Series files skipped while loading"`
}

// LoadErrorItem describes a skipped series file.
type LoadErrorItem struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// NeuronCheckpointsInput defines the input for the neuron_checkpoints tool.
type NeuronCheckpointsInput struct {
	Model  string `json:"model,omitempty" jsonschema:"Model variant key or name (default: first configured model)"`
	Neuron string `json:"neuron" jsonschema:"Neuron id such as L0N20"`
}

// NeuronCheckpointsOutput defines the output for the neuron_checkpoints tool.
type NeuronCheckpointsOutput struct {
	Neuron        string `json:"neuron" jsonschema:"Neuron id"`
	Steps         []int  `json:"steps" jsonschema:"Available checkpoint steps, ascending"`
	ReferenceStep int    `json:"reference_step" jsonschema:"Step of the emphasized reference checkpoint"`
}

// NeuronPanelInput defines the input for the neuron_panel tool.
type NeuronPanelInput struct {
	Model  string `json:"model,omitempty" jsonschema:"Model variant key or name (default: first configured model)"`
	Neuron string `json:"neuron" jsonschema:"Neuron id such as L0N20"`
	Step   *int   `json:"step,omitempty" jsonschema:"Checkpoint step to compare against the reference (default: first checkpoint)"`
}

// NeuronPanelOutput defines the output for the neuron_panel tool.
type NeuronPanelOutput struct {
	Neuron          string        `json:"neuron" jsonschema:"Neuron id"`
	Step            int           `json:"step" jsonschema:"Selected checkpoint step"`
	Checkpoint      []ClusterItem `json:"checkpoint" jsonschema:"Clusters at the selected checkpoint, without highlights"`
	CheckpointError string        `json:"checkpoint_error,omitempty" jsonschema:"Why the selected checkpoint is unavailable"`
	ReferenceStep   int           `json:"reference_step" jsonschema:"Step of the reference checkpoint"`
	Reference       []ClusterItem `json:"reference" jsonschema:"Clusters at the reference checkpoint with highlighted tokens in [brackets]"`
}

// ClusterItem is one cluster of a checkpoint.
type ClusterItem struct {
	Label    string   `json:"label" jsonschema:"Cluster label"`
	Total    int      `json:"total" jsonschema:"Number of examples in the cluster"`
	Terms    []string `json:"terms" jsonschema:"Common terms driving highlights (reference only)"`
	Examples []string `json:"examples" jsonschema:"Example texts, highlighted tokens wrapped in [brackets]"`
}

// CommonTermsInput defines the input for the common_terms tool.
type CommonTermsInput struct {
	Texts     []string `json:"texts,omitempty" jsonschema:"Texts to analyze; when empty the clusters of neuron at step are analyzed"`
	Model     string   `json:"model,omitempty" jsonschema:"Model variant key or name"`
	Neuron    string   `json:"neuron,omitempty" jsonschema:"Neuron id such as L0N20"`
	Step      *int     `json:"step,omitempty" jsonschema:"Checkpoint step (default: reference checkpoint)"`
	MinLength int      `json:"min_length,omitempty" jsonschema:"Shortest word or fragment considered (default: 3)"`
	TopN      int      `json:"top_n,omitempty" jsonschema:"Number of terms returned per text group (default: 2)"`
}

// CommonTermsOutput defines the output for the common_terms tool.
type CommonTermsOutput struct {
	Groups []TermGroup `json:"groups" jsonschema:"One entry per analyzed text group"`
}

// TermGroup holds the common terms of one group of texts.
type TermGroup struct {
	Label string   `json:"label" jsonschema:"Cluster label, empty for ad-hoc texts"`
	Texts int      `json:"texts" jsonschema:"Number of texts analyzed"`
	Terms []string `json:"terms" jsonschema:"Most common terms, best first"`
}
