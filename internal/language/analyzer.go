package language

// Morpheme is one span of morphological analysis. Start and End are byte
// offsets into the analyzed text.
type Morpheme struct {
	Surface  string `json:"surface"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	BaseForm string `json:"base_form"`
	POS      string `json:"pos"`
}

// Inflected reports whether the span differs from its dictionary form.
func (m Morpheme) Inflected() bool {
	return m.BaseForm != "" && m.BaseForm != m.Surface
}

// Analyzer finds verb and adjective spans in Japanese text and their
// dictionary forms. Implementations return an empty slice when there are no
// such spans; they never fail.
type Analyzer interface {
	Analyze(text string) []Morpheme
}

// AnalyzerFunc adapts a plain function to Analyzer.
type AnalyzerFunc func(text string) []Morpheme

func (f AnalyzerFunc) Analyze(text string) []Morpheme { return f(text) }

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(string) []Morpheme { return nil }

// NoopAnalyzer never reports any spans.
var NoopAnalyzer Analyzer = noopAnalyzer{}
