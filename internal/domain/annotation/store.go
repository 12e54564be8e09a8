package annotation

import (
	"github.com/turtacn/MeasureLink/pkg/errors"
)

// Store indexes the tokens of one sentence for constant-time resolution by
// token index, by surface word, and by sentence-local character offset.
//
// Character offsets reported by the annotator are document-global; external
// detectors that re-process a single sentence report sentence-local offsets.
// The store rebases all offset lookups onto the first token's start so both
// views meet in the middle.
type Store struct {
	byIndex map[int]Token
	byWord  map[string]int
	byStart map[int]int
	byEnd   map[int]int
	base    int
}

// NewStore builds a Store over tokens.  When two tokens share a surface
// word the later token wins the word lookup; offset lookups are unaffected.
func NewStore(tokens []Token) *Store {
	s := &Store{
		byIndex: make(map[int]Token, len(tokens)+1),
		byWord:  make(map[string]int, len(tokens)),
		byStart: make(map[int]int, len(tokens)),
		byEnd:   make(map[int]int, len(tokens)),
	}
	if len(tokens) > 0 {
		s.base = tokens[0].CharacterStart
	}
	for _, t := range tokens {
		s.byIndex[t.Index] = t
		s.byWord[t.Word] = t.Index
		s.byStart[t.CharacterStart-s.base] = t.Index
		s.byEnd[t.CharacterEnd-s.base] = t.Index
	}
	return s
}

// Len returns the number of real tokens in the store.
func (s *Store) Len() int { return len(s.byIndex) }

// ByIndex resolves a token by index.  Index 0 resolves to the synthetic
// parse root; any other unknown index is a contract violation and returns
// an UnknownToken error.
func (s *Store) ByIndex(idx int) (Token, error) {
	if idx == 0 {
		return rootToken, nil
	}
	t, ok := s.byIndex[idx]
	if !ok {
		return Token{}, errors.Newf(errors.ErrCodeUnknownToken, "no token at index %d", idx)
	}
	return t, nil
}

// IndexOfWord returns the index of the last token whose surface form equals
// word.
func (s *Store) IndexOfWord(word string) (int, bool) {
	idx, ok := s.byWord[word]
	return idx, ok
}

// IndexAtStart returns the index of the token starting at the given
// sentence-local character offset.
func (s *Store) IndexAtStart(offset int) (int, bool) {
	idx, ok := s.byStart[offset]
	return idx, ok
}

// IndexAtEnd returns the index of the token ending at the given
// sentence-local character offset.
func (s *Store) IndexAtEnd(offset int) (int, bool) {
	idx, ok := s.byEnd[offset]
	return idx, ok
}

// POS returns the part-of-speech tag for idx, or the empty string when the
// index is unknown or the root.
func (s *Store) POS(idx int) string {
	t, err := s.ByIndex(idx)
	if err != nil {
		return ""
	}
	return t.POS
}
