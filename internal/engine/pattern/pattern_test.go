package pattern

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MeasureLink/internal/domain/align"
	"github.com/turtacn/MeasureLink/pkg/errors"
)

const sampleDoc = `{
  "relations": {
    "nsubj": {
      "formats": ["space_between", "hyphenated"],
      "predicates": [
        {"match": "pos_in", "pos": "NN"},
        {"match": "pos_in", "pos": "JJ", "action": "chase_cousin",
         "cousin_labels": ["nsubj"], "else": "if_no_cousin"}
      ]
    },
    "compound": {
      "formats": ["attached"],
      "predicates": [
        {"match": "pos_in", "pos": "NN", "action": "replace_with_sibling"}
      ]
    },
    "nmod": {
      "enhanced": true,
      "subtypes": {
        "of": {
          "formats": ["space_between", "uncertain"],
          "predicates": [{"match": "pos_in", "pos": "NN"}]
        },
        "at": {
          "formats": ["space_between"],
          "predicates": [{"match": "pos_not", "pos": "CD"}]
        }
      }
    }
  },
  "operators": ["approximately", "about"]
}`

func TestParseAndLookup(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	rule, ok := s.Lookup("nsubj", align.FormatSpaceBetween)
	require.True(t, ok)
	require.Len(t, rule.Predicates, 2)
	assert.Equal(t, PredicatePosIn, rule.Predicates[0].Kind)
	assert.Equal(t, ActionEmitSibling, rule.Predicates[0].Action.Kind)
	assert.Equal(t, ActionChaseCousin, rule.Predicates[1].Action.Kind)
	assert.Equal(t, ElseIfNoCousin, rule.Predicates[1].Action.Else)

	// Format filtering.
	_, ok = s.Lookup("nsubj", align.FormatAttached)
	assert.False(t, ok)

	// Enhanced subtypes resolve through composite labels only.
	_, ok = s.Lookup("nmod", align.FormatSpaceBetween)
	assert.False(t, ok)
	rule, ok = s.Lookup("nmod:of", align.FormatSpaceBetween)
	require.True(t, ok)
	assert.True(t, rule.AppliesTo(align.FormatUncertain))

	// Unknown label.
	_, ok = s.Lookup("cc", align.FormatSpaceBetween)
	assert.False(t, ok)
}

func TestOperators(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.True(t, s.IsOperator("approximately"))
	assert.False(t, s.IsOperator("exactly"))
	assert.Equal(t, []string{"about", "approximately"}, s.Operators())
}

func TestExcludesPOS(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	rule, ok := s.Lookup("nsubj", align.FormatSpaceBetween)
	require.True(t, ok)
	assert.True(t, rule.ExcludesPOS("NN"))
	assert.True(t, rule.ExcludesPOS("JJ"))
	assert.False(t, rule.ExcludesPOS("VB"))
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{"not json", `{`, errors.ErrCodeInvalidPatternConfig},
		{"no relations", `{"relations": {}}`, errors.ErrCodeInvalidPatternConfig},
		{"no formats", `{"relations": {"nsubj": {"predicates": [{"match": "pos_in", "pos": "NN"}]}}}`,
			errors.ErrCodeInvalidPatternConfig},
		{"no predicates", `{"relations": {"nsubj": {"formats": ["attached"]}}}`,
			errors.ErrCodeInvalidPatternConfig},
		{"bad format", `{"relations": {"nsubj": {"formats": ["vertical"],
			"predicates": [{"match": "pos_in", "pos": "NN"}]}}}`,
			errors.ErrCodeInvalidPatternConfig},
		{"unknown predicate kind", `{"relations": {"nsubj": {"formats": ["attached"],
			"predicates": [{"match": "pos_like", "pos": "NN"}]}}}`,
			errors.ErrCodeUnknownPredicate},
		{"cousin without labels", `{"relations": {"nsubj": {"formats": ["attached"],
			"predicates": [{"match": "pos_in", "pos": "NN", "action": "chase_cousin"}]}}}`,
			errors.ErrCodeInvalidPatternConfig},
		{"enhanced without subtypes", `{"relations": {"nmod": {"enhanced": true}}}`,
			errors.ErrCodeInvalidPatternConfig},
		{"else without cousin", `{"relations": {"nsubj": {"formats": ["attached"],
			"predicates": [{"match": "pos_in", "pos": "NN", "else": "always"}]}}}`,
			errors.ErrCodeInvalidPatternConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePatternFileMissing))
}

func TestLoadDefaultDocument(t *testing.T) {
	s, err := Load("../../../configs/dependency_patterns.json")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Labels())
	assert.True(t, s.IsOperator("approximately"))
}
