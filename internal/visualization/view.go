// Package visualization renders checkpoint panels of a neuron series as a
// self-contained static page or through the interactive dashboard.
package visualization

import (
	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/highlight"
	"github.com/anon96881/PythiaEvolution/internal/neuron"
)

// Options controls how a record is laid out into a Panel.
type Options struct {
	// Palette is cycled through by cluster position.
	Palette []string

	// MaxExamples caps examples per cluster; 0 shows all of them.
	// Highlighting always considers the whole cluster.
	MaxExamples int

	MinTermLength int
	TopTerms      int
}

// OptionsFrom builds Options from the render configuration.
func OptionsFrom(rc config.RenderConfig) Options {
	return Options{
		Palette:       rc.Palette,
		MaxExamples:   rc.MaxExamples,
		MinTermLength: rc.MinTermLength,
		TopTerms:      rc.TopTerms,
	}
}

// DefaultOptions mirrors config.Default's render section.
func DefaultOptions() Options {
	return OptionsFrom(config.Default().Render)
}

// Token is one whitespace-delimited token of an example.
type Token struct {
	Text string `json:"t"`
	High bool   `json:"h,omitempty"`
}

// Example is a tokenized example text.
type Example struct {
	Tokens []Token `json:"tokens"`
}

// ClusterView is one colored cluster block of a panel.
type ClusterView struct {
	Label    neuron.Label `json:"label"`
	Color    string       `json:"color"`
	Total    int          `json:"total"`
	Terms    []string     `json:"terms,omitempty"`
	Examples []Example    `json:"examples"`
	Hidden   int          `json:"hidden,omitempty"`
}

// Panel is the rendered form of one checkpoint record.
type Panel struct {
	Step       int           `json:"step"`
	Emphasized bool          `json:"emphasized"`
	Clusters   []ClusterView `json:"clusters"`
}

// BuildPanel groups r by cluster label and tokenizes every shown example.
// Common terms, and therefore highlights, exist only when emphasize is set.
func BuildPanel(r neuron.Record, emphasize bool, opts Options) Panel {
	p := Panel{
		Step:       r.Step,
		Emphasized: emphasize,
		Clusters:   make([]ClusterView, 0),
	}

	for i, c := range neuron.Group(r) {
		cv := ClusterView{
			Label:    c.Label,
			Color:    paletteColor(opts.Palette, i),
			Total:    len(c.Texts),
			Examples: make([]Example, 0, len(c.Texts)),
		}
		if emphasize {
			cv.Terms = highlight.CommonTerms(c.Texts, opts.MinTermLength, opts.TopTerms)
		}

		shown := c.Texts
		if opts.MaxExamples > 0 && len(shown) > opts.MaxExamples {
			shown = shown[:opts.MaxExamples]
			cv.Hidden = len(c.Texts) - opts.MaxExamples
		}
		for _, text := range shown {
			cv.Examples = append(cv.Examples, buildExample(text, cv.Terms))
		}
		p.Clusters = append(p.Clusters, cv)
	}
	return p
}

func buildExample(text string, terms []string) Example {
	tokens := highlight.Tokenize(text)
	flags := highlight.Mark(tokens, terms)
	ex := Example{Tokens: make([]Token, len(tokens))}
	for i, tok := range tokens {
		ex.Tokens[i] = Token{Text: tok, High: flags[i]}
	}
	return ex
}

func paletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		return "#999999"
	}
	return palette[i%len(palette)]
}
