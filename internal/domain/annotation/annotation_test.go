package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MeasureLink/pkg/errors"
)

// tokensFor builds a token slice for words separated by single spaces,
// starting at a document-global offset to exercise offset rebasing.
func tokensFor(baseOffset int, words ...string) []Token {
	tokens := make([]Token, 0, len(words))
	offset := baseOffset
	for i, w := range words {
		after := " "
		if i == len(words)-1 {
			after = ""
		}
		tokens = append(tokens, Token{
			Index:          i + 1,
			Word:           w,
			OriginalText:   w,
			POS:            "NN",
			CharacterStart: offset,
			CharacterEnd:   offset + len(w),
			After:          after,
		})
		offset += len(w) + 1
	}
	return tokens
}

func TestStoreByIndex(t *testing.T) {
	s := NewStore(tokensFor(100, "The", "rod", "is", "10", "m", "long"))

	tok, err := s.ByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, "rod", tok.Word)

	root, err := s.ByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, "ROOT", root.Word)

	_, err = s.ByIndex(42)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownToken))
}

func TestStoreWordLookupLastWriterWins(t *testing.T) {
	s := NewStore(tokensFor(0, "speed", "versus", "speed"))

	idx, ok := s.IndexOfWord("speed")
	require.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestStoreOffsetLookupsAreSentenceLocal(t *testing.T) {
	// Sentence starts at document offset 100; detector offsets start at 0.
	s := NewStore(tokensFor(100, "The", "rod", "is", "10", "m", "long"))

	idx, ok := s.IndexAtStart(4) // "rod"
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = s.IndexAtEnd(13) // end of "10"
	require.True(t, ok)
	assert.Equal(t, 4, idx)

	_, ok = s.IndexAtStart(5) // middle of "rod"
	assert.False(t, ok)
}

func TestCheckParse(t *testing.T) {
	sent := &Sentence{
		Index:  0,
		Tokens: tokensFor(0, "ok"),
		Edges: []DependencyEdge{
			{Relation: "root", Governor: 0, GovernorGloss: "ROOT", Dependent: 1, DependentGloss: "ok"},
		},
	}
	require.NoError(t, sent.CheckParse())

	sent.Edges[0].DependentGloss = ""
	err := sent.CheckParse()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseFailure))

	empty := &Sentence{Index: 1}
	assert.True(t, errors.IsCode(empty.CheckParse(), errors.ErrCodeParseFailure))
}

func TestSentenceText(t *testing.T) {
	sent := &Sentence{Tokens: tokensFor(100, "The", "rod", "is", "10", "m", "long")}
	assert.Equal(t, "The rod is 10 m long", sent.Text())
}

func TestSentenceTextEmpty(t *testing.T) {
	assert.Equal(t, "", (&Sentence{}).Text())
}
