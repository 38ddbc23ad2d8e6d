package entities

// TextBuffer holds the editable source text and the derived translation output
type TextBuffer struct {
	SourceText string `json:"source_text"`
	ResultText string `json:"result_text"`
	// ResultStale is set once a translation is requested for input that differs
	// from the input that produced ResultText.
	ResultStale bool `json:"result_stale"`
}

// TextState is the shared language/text model owned by the coordinator
type TextState struct {
	Pair   LanguagePair `json:"pair"`
	Buffer TextBuffer   `json:"buffer"`

	// origin of ResultText, used to decide staleness
	resultFor translationInput
}

type translationInput struct {
	text string
	pair LanguagePair
}

// NewTextState creates an empty state for the given pair
func NewTextState(pair LanguagePair) TextState {
	return TextState{Pair: pair}
}

// Swap exchanges the languages and the texts in a single step.
// Applying it twice restores the original state.
func (s *TextState) Swap() {
	s.Pair = s.Pair.Swapped()
	s.Buffer.SourceText, s.Buffer.ResultText = s.Buffer.ResultText, s.Buffer.SourceText
	s.resultFor = translationInput{text: s.Buffer.SourceText, pair: s.Pair}
}

// MarkRequested records that a translation was issued for text/pair and flags
// the current result as stale when it was produced for different input.
func (s *TextState) MarkRequested(text string, pair LanguagePair) {
	if s.Buffer.ResultText == "" {
		return
	}
	if s.resultFor.text != text || s.resultFor.pair != pair {
		s.Buffer.ResultStale = true
	}
}

// ApplyResult stores a translation produced for text/pair
func (s *TextState) ApplyResult(text string, pair LanguagePair, result string) {
	s.Buffer.ResultText = result
	s.Buffer.ResultStale = false
	s.resultFor = translationInput{text: text, pair: pair}
}
