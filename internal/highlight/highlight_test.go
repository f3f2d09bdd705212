package highlight

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"double space", "a  b", []string{"a", "b"}},
		{"empty", "", []string{}},
		{"only whitespace", " \t\n ", []string{}},
		{"punctuation attached", "Hello, world!", []string{"Hello,", "world!"}},
		{"leading and trailing", "  what is known\n", []string{"what", "is", "known"}},
		{"unicode", "naïve café", []string{"naïve", "café"}},
		{"information separators", "cat\x1fsat\x1cran", []string{"cat", "sat", "ran"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRuns_RoundTrip(t *testing.T) {
	inputs := []string{"", "a  b", "  lead", "trail \n", "x\ty z", "über  straße", "a\x1e\x1fb"}
	for _, in := range inputs {
		if got := strings.Join(Runs(in), ""); got != in {
			t.Errorf("Runs(%q) joined = %q", in, got)
		}
	}
}

func TestCommonTerms(t *testing.T) {
	tests := []struct {
		name      string
		texts     []string
		minLength int
		topN      int
		want      []string
	}{
		{"dominant word", []string{"cat cat cat dog"}, 3, 1, []string{"cat"}},
		{"stop words only", []string{"the the the"}, 3, 2, []string{}},
		{"empty input", nil, 3, 2, []string{}},
		{"short words dropped", []string{"ox ox ox ox ox"}, 3, 2, []string{}},
		{"tie keeps first seen", []string{"dog cat", "cat dog"}, 3, 2, []string{"dog", "cat"}},
		{"case folded", []string{"Neuron NEURON neuron"}, 3, 1, []string{"neuron"}},
		{"digits break words", []string{"abc1 abc1 abc1 xyz"}, 3, 1, []string{"xyz"}},
		{"zero top n", []string{"cat"}, 3, 0, []string{}},
		{"negative min length uses default", []string{"cat cat ox"}, -1, 2, []string{"cat"}},
		{"zero min length uses default", []string{"cat cat ox"}, 0, 2, []string{"cat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CommonTerms(tt.texts, tt.minLength, tt.topN)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CommonTerms(%q) = %q, want %q", tt.texts, got, tt.want)
			}
		})
	}
}

func TestCommonTerms_FragmentsBoostWords(t *testing.T) {
	// "running", "runner", "runs" ... share the fragment "run" five times,
	// which outranks any single whole word (weight 2 each).
	texts := []string{"running runner runs rerun runway"}
	got := CommonTerms(texts, 3, 1)
	if !reflect.DeepEqual(got, []string{"run"}) {
		t.Errorf("CommonTerms = %q, want [run]", got)
	}
}

func TestCommonTerms_FragmentAddsToWholeWord(t *testing.T) {
	// "cat" occurs three times as a word (score 6) and twice more inside
	// "cats" as a fragment, reaching the fragment threshold of five:
	// 6 + 5 = 11 beats "cats" at 4.
	texts := []string{"cat cat cat cats cats"}
	got := CommonTerms(texts, 3, 2)
	if len(got) == 0 || got[0] != "cat" {
		t.Fatalf("CommonTerms = %q, want cat first", got)
	}
}

func TestCommonTerms_Idempotent(t *testing.T) {
	texts := []string{"interpretability of neurons", "neurons fire", "interpretable neurons"}
	first := CommonTerms(texts, DefaultMinLength, DefaultTopN)
	second := CommonTerms(texts, DefaultMinLength, DefaultTopN)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("CommonTerms not idempotent: %q vs %q", first, second)
	}
}

func TestCandidateWords(t *testing.T) {
	got := candidateWords("hello, wörld foo_bar x2 plain")
	want := []string{"hello", "plain"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("candidateWords = %q, want %q", got, want)
	}
}

func TestHighlight_NotEmphasized(t *testing.T) {
	tokens := []string{"cat", "cat", "cat"}
	got := Highlight(tokens, []string{"cat cat cat"}, false)
	if !reflect.DeepEqual(got, []bool{false, false, false}) {
		t.Errorf("Highlight(emphasize=false) = %v, want all false", got)
	}
}

func TestHighlight_NoClusterTexts(t *testing.T) {
	tokens := []string{"cat", "dog"}
	got := Highlight(tokens, nil, true)
	if !reflect.DeepEqual(got, []bool{false, false}) {
		t.Errorf("Highlight(no texts) = %v, want all false", got)
	}
}

func TestHighlight_EndToEnd(t *testing.T) {
	cluster := []string{"the cat sat", "a cat ran"}

	terms := CommonTerms(cluster, DefaultMinLength, DefaultTopN)
	if !reflect.DeepEqual(terms, []string{"cat", "sat"}) {
		t.Fatalf("terms = %q, want [cat sat]", terms)
	}

	first := Highlight(Tokenize(cluster[0]), cluster, true)
	if want := []bool{false, true, true}; !reflect.DeepEqual(first, want) {
		t.Errorf("Highlight(%q) = %v, want %v", cluster[0], first, want)
	}

	// "a" is contained in "cat", so the overlap rule flags it; "ran" is
	// not a top term and shares no substring relation with one.
	second := Highlight(Tokenize(cluster[1]), cluster, true)
	if want := []bool{true, true, false}; !reflect.DeepEqual(second, want) {
		t.Errorf("Highlight(%q) = %v, want %v", cluster[1], second, want)
	}
}

func TestMark(t *testing.T) {
	tokens := []string{"Cats!", "(at)", "...", "dogma", "DOG"}
	got := Mark(tokens, []string{"cat", "dog"})
	want := []bool{true, true, false, true, true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Mark = %v, want %v", got, want)
	}
}

func TestCleanToken(t *testing.T) {
	tests := map[string]string{
		"Hello,":   "hello",
		"don't":    "dont",
		"snake_id": "snake_id",
		"—":        "",
		"Café!":    "café",
		"x2":       "x2",
	}
	for in, want := range tests {
		if got := CleanToken(in); got != want {
			t.Errorf("CleanToken(%q) = %q, want %q", in, got, want)
		}
	}
}
