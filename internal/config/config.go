// Package config provides unified configuration loading for pythiaevo.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultReferenceStep is the final Pythia training checkpoint.
const DefaultReferenceStep = 143000

// Config contains all pythiaevo configuration settings.
type Config struct {
	// Data locates the per-neuron checkpoint series.
	Data DataConfig `json:"data" yaml:"data"`

	// Models is the table of supported model variants.
	Models []ModelVariant `json:"models" yaml:"models" validate:"min=1,dive"`

	// Render controls panel layout shared by the static export and the dashboard.
	Render RenderConfig `json:"render" yaml:"render"`

	// Server configures the interactive dashboard.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// DataConfig locates the dataset on disk.
type DataConfig struct {
	// Root is the directory the variants' search dirs are relative to.
	Root string `json:"root" yaml:"root" validate:"required"`

	// Source optionally points at a SQLite bundle produced by `pythiaevo pack`.
	// When set, it is read instead of scanning JSONL files under Root.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Watch invalidates cached datasets when files under Root change.
	Watch bool `json:"watch" yaml:"watch"`
}

// ModelVariant describes one model's dataset layout and index ranges.
type ModelVariant struct {
	// Key is the short identifier used in file names and URLs, e.g. "pythia70m".
	Key string `json:"key" yaml:"key" validate:"required,alphanum"`

	// Name is the display name, e.g. "Pythia-70M".
	Name string `json:"name" yaml:"name" validate:"required"`

	// SearchDirs are scanned (relative to DataConfig.Root) for series files.
	SearchDirs []string `json:"search_dirs" yaml:"search_dirs" validate:"min=1,dive,required"`

	// MaxLayer is the highest valid layer index.
	MaxLayer int `json:"max_layer" yaml:"max_layer" validate:"gte=0"`

	// MaxNeuron is the highest valid neuron index within a layer.
	MaxNeuron int `json:"max_neuron" yaml:"max_neuron" validate:"gte=0"`

	// NeuronStep is the spacing between sampled neuron indices.
	NeuronStep int `json:"neuron_step" yaml:"neuron_step" validate:"gte=1"`
}

// Suffix returns the file-name suffix that follows the neuron id,
// e.g. "_pythia70m_ckpt_series.jsonl".
func (m ModelVariant) Suffix() string {
	return "_" + m.Key + "_ckpt_series.jsonl"
}

// InRange reports whether layer and neuron fall inside the variant's bounds.
func (m ModelVariant) InRange(layer, neuron int) bool {
	return layer >= 0 && layer <= m.MaxLayer && neuron >= 0 && neuron <= m.MaxNeuron
}

// RenderConfig controls how checkpoint panels are laid out.
type RenderConfig struct {
	// ReferenceStep is the checkpoint pinned to the emphasized panel.
	// Series lacking it fall back to their last record.
	ReferenceStep int `json:"reference_step" yaml:"reference_step" validate:"gte=0"`

	// Palette is cycled through to color clusters.
	Palette []string `json:"palette" yaml:"palette" validate:"min=1,dive,hexcolor"`

	// MaxExamples caps examples shown per cluster on the dashboard (0 = all).
	MaxExamples int `json:"max_examples" yaml:"max_examples" validate:"gte=0"`

	// MinTermLength is the shortest word or fragment counted as a common term.
	MinTermLength int `json:"min_term_length" yaml:"min_term_length" validate:"gte=1"`

	// TopTerms is how many common terms drive highlighting per cluster.
	TopTerms int `json:"top_terms" yaml:"top_terms" validate:"gte=1"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	// Addr is the listen address; "localhost:0" picks a free port.
	Addr string `json:"addr" yaml:"addr" validate:"required"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=info debug trace"`

	// Format selects the handler: "text" (default) or "json".
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultPalette is the cluster color cycle.
var DefaultPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#F39C12", "#E74C3C", "#9B59B6", "#3498DB",
}

// DefaultModels returns the built-in variant table.
func DefaultModels() []ModelVariant {
	return []ModelVariant{
		{
			Key:        "pythia70m",
			Name:       "Pythia-70M",
			SearchDirs: []string{"results", "results/pythia70m"},
			MaxLayer:   5,
			MaxNeuron:  2000,
			NeuronStep: 20,
		},
		{
			Key:        "pythia160m",
			Name:       "Pythia-160M",
			SearchDirs: []string{"results/pythia160m"},
			MaxLayer:   11,
			MaxNeuron:  3060,
			NeuronStep: 60,
		},
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Root: ".",
		},
		Models: DefaultModels(),
		Render: RenderConfig{
			ReferenceStep: DefaultReferenceStep,
			Palette:       append([]string(nil), DefaultPalette...),
			MaxExamples:   5,
			MinTermLength: 3,
			TopTerms:      2,
		},
		Server: ServerConfig{
			Addr: "localhost:0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Model looks up a variant by key or display name (case-insensitive).
func (c *Config) Model(name string) (ModelVariant, bool) {
	for _, m := range c.Models {
		if strings.EqualFold(m.Key, name) || strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return ModelVariant{}, false
}

// DefaultPath returns ~/.pythiaevo/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pythiaevo", "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when
// path is empty, then applies environment variable overrides.
// Order: defaults -> config file -> environment variables.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil || explicit {
			fileConfig, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Data.Root = expandEnvVars(config.Data.Root)
	config.Data.Source = expandEnvVars(config.Data.Source)

	return config, nil
}

var validate = validator.New()

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		key := strings.ToLower(m.Key)
		if seen[key] {
			return fmt.Errorf("duplicate model key: %s", m.Key)
		}
		seen[key] = true
	}

	return nil
}

// formatValidationError turns validator errors into one readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s, got %v", field, e.Param(), e.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "hexcolor":
			msgs = append(msgs, fmt.Sprintf("%s must be a hex color, got %v", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PYTHIAEVO_DATA_ROOT"); v != "" {
		config.Data.Root = v
	}

	if v := os.Getenv("PYTHIAEVO_SOURCE"); v != "" {
		config.Data.Source = v
	}

	if v := os.Getenv("PYTHIAEVO_WATCH"); v != "" {
		config.Data.Watch = v == "true" || v == "1"
	}

	if v := os.Getenv("PYTHIAEVO_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("PYTHIAEVO_REFERENCE_STEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Render.ReferenceStep = n
		}
	}

	if v := os.Getenv("PYTHIAEVO_MAX_EXAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Render.MaxExamples = n
		}
	}

	if v := os.Getenv("PYTHIAEVO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("PYTHIAEVO_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
