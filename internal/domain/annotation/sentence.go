package annotation

import (
	"github.com/turtacn/MeasureLink/pkg/errors"
)

// Sentence is one annotated sentence: its position in the document, its
// tokens, and its dependency parse.
type Sentence struct {
	Index  int              `json:"index"`
	Tokens []Token          `json:"tokens"`
	Edges  []DependencyEdge `json:"edges"`
}

// CheckParse verifies that the dependency parse is usable: the sentence
// must have at least one edge and every edge must carry both glosses.
// A missing gloss means the parser gave up on the sentence; the caller
// should skip it rather than extract from a broken graph.
func (s *Sentence) CheckParse() error {
	if len(s.Edges) == 0 {
		return errors.Newf(errors.ErrCodeParseFailure, "sentence %d has no dependency edges", s.Index)
	}
	for _, e := range s.Edges {
		if e.GovernorGloss == "" || e.DependentGloss == "" {
			return errors.Newf(errors.ErrCodeParseFailure,
				"sentence %d has a dependency edge %q with a missing gloss", s.Index, e.Relation)
		}
	}
	return nil
}

// Text reconstructs the sentence's surface text from token offsets.  Gaps
// between tokens (collapsed whitespace in the parse) come back as single
// spaces, which keeps detector offsets aligned with the token store.
func (s *Sentence) Text() string {
	if len(s.Tokens) == 0 {
		return ""
	}
	base := s.Tokens[0].CharacterStart
	end := 0
	for _, t := range s.Tokens {
		if t.CharacterEnd-base > end {
			end = t.CharacterEnd - base
		}
	}
	buf := make([]byte, end)
	for i := range buf {
		buf[i] = ' '
	}
	for _, t := range s.Tokens {
		text := t.OriginalText
		if text == "" {
			text = t.Word
		}
		copy(buf[t.CharacterStart-base:], text)
	}
	return string(buf)
}
