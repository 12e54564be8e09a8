package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

type fakeExtractor struct {
	extractions []*mtypes.Extraction
	err         error
	gotText     string
}

func (f *fakeExtractor) Extract(_ context.Context, text string) ([]*mtypes.Extraction, error) {
	f.gotText = text
	return f.extractions, f.err
}

func fakeFactory(f *fakeExtractor) ExtractorFactory {
	return func(*RootOptions) (Extractor, error) { return f, nil }
}

func parsed(v float64) *float64 { return &v }

func sampleExtractions() []*mtypes.Extraction {
	return []*mtypes.Extraction{{
		SentenceIndex: 0,
		Sentence:      "The rod is 10 m long.",
		Measurements: []*mtypes.Measurement{{
			Type: mtypes.KindValue,
			Quantity: &mtypes.Quantity{
				RawValue:    "10",
				ParsedValue: parsed(10),
				RawUnit:     &mtypes.Unit{Name: "m"},
			},
			Related: []mtypes.RelatedWord{{RawName: "rod", RelationForm: "nsubj"}},
		}},
	}}
}

func runCommand(t *testing.T, factory ExtractorFactory, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandStructure(t *testing.T) {
	cmd := NewRootCommand(fakeFactory(&fakeExtractor{}))
	assert.Equal(t, "measurelink", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, strings.Fields(sub.Use)[0])
	}
	assert.Contains(t, names, "extract")
	assert.Contains(t, names, "rules")
	assert.Contains(t, names, "version")

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestExtractFromStdin(t *testing.T) {
	f := &fakeExtractor{extractions: sampleExtractions()}
	out, err := runCommand(t, fakeFactory(f), "The rod is 10 m long.", "extract")
	require.NoError(t, err)
	assert.Equal(t, "The rod is 10 m long.", f.gotText)

	var docs []*mtypes.Extraction
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Measurements, 1)
	assert.Equal(t, "rod", docs[0].Measurements[0].Related[0].RawName)
}

func TestExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("some text"), 0o644))

	f := &fakeExtractor{extractions: sampleExtractions()}
	_, err := runCommand(t, fakeFactory(f), "", "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "some text", f.gotText)
}

func TestExtractSimplified(t *testing.T) {
	f := &fakeExtractor{extractions: sampleExtractions()}
	out, err := runCommand(t, fakeFactory(f), "text", "extract", "--simplify")
	require.NoError(t, err)

	var docs []struct {
		Sentence     string               `json:"sentence"`
		Measurements []*mtypes.Simplified `json:"measurements"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Measurements, 1)
	assert.Equal(t, 10.0, docs[0].Measurements[0].Value)
	assert.Equal(t, "m", docs[0].Measurements[0].Unit)
}

func TestExtractJSONLWritesOneDocPerSentence(t *testing.T) {
	extractions := append(sampleExtractions(), &mtypes.Extraction{
		SentenceIndex: 1, Sentence: "Nothing here.",
	})
	f := &fakeExtractor{extractions: extractions}
	out, err := runCommand(t, fakeFactory(f), "text", "extract", "--jsonl")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var doc mtypes.Extraction
		require.NoError(t, json.Unmarshal([]byte(line), &doc))
	}
}

func TestExtractWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f := &fakeExtractor{extractions: sampleExtractions()}
	_, err := runCommand(t, fakeFactory(f), "text", "extract", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var docs []*mtypes.Extraction
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	_, err := runCommand(t, fakeFactory(&fakeExtractor{}), "   \n", "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestRulesValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	doc := `{
		"relations": {
			"nsubj": {"formats": ["space_between"], "predicates": [{"match": "pos_in", "pos": "NN"}]}
		},
		"operators": ["approximately"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := runCommand(t, fakeFactory(&fakeExtractor{}), "", "rules", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 relation rules")
	assert.Contains(t, out, "1 operator words")
}

func TestRulesValidateRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"relations": {"x": {}}}`), 0o644))

	_, err := runCommand(t, fakeFactory(&fakeExtractor{}), "", "rules", "validate", path)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, fakeFactory(&fakeExtractor{}), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "measurelink")
}
