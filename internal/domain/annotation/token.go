// Package annotation holds the domain model for one linguistically
// annotated sentence: its tokens, its dependency edges, and the token
// store used to resolve words, indices, and character offsets.
package annotation

// Token is one token of an annotated sentence.  Indices are 1-based;
// index 0 is reserved for the synthetic root of the dependency parse.
type Token struct {
	Index          int    `json:"index"`
	Word           string `json:"word"`
	OriginalText   string `json:"originalText"`
	Lemma          string `json:"lemma"`
	POS            string `json:"pos"`
	NER            string `json:"ner,omitempty"`
	CharacterStart int    `json:"characterOffsetBegin"`
	CharacterEnd   int    `json:"characterOffsetEnd"`

	// After is the raw text between this token and the next one, usually
	// a space, an empty string, or a hyphen.
	After string `json:"after"`
}

// DependencyEdge is one edge of a sentence's dependency parse.  Governor 0
// denotes the synthetic root.
type DependencyEdge struct {
	Relation       string `json:"dep"`
	Governor       int    `json:"governor"`
	GovernorGloss  string `json:"governorGloss"`
	Dependent      int    `json:"dependent"`
	DependentGloss string `json:"dependentGloss"`
}

// rootToken is the sentinel returned for index 0 lookups so that edges
// touching the parse root resolve without a special case at call sites.
var rootToken = Token{Index: 0, Word: "ROOT"}
