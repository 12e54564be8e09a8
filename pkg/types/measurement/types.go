// Package measurement defines the public data model for detected
// measurements and their extracted relations.  These types appear on the
// HTTP API, on the Kafka topic, and in the SDK client, so they live under
// pkg/ rather than internal/.
package measurement

// Kind classifies a detected measurement.
type Kind string

const (
	// KindValue is a single scalar quantity ("10 m").
	KindValue Kind = "value"
	// KindInterval is a bounded range ("5 to 10 m").
	KindInterval Kind = "interval"
	// KindList is an enumerated list of quantities.  Lists are not
	// supported by the extraction pipeline and are dropped on alignment.
	KindList Kind = "list"
)

// Descriptor is an adjective or noun modifier attached to a related word,
// e.g. "average" in "average speed".
type Descriptor struct {
	TokenIndex int    `json:"tokenIndex"`
	RawName    string `json:"rawName"`
}

// RelatedWord is a word connected to a measurement through the sentence's
// dependency structure, together with the grammatical path that produced it.
type RelatedWord struct {
	RawName      string       `json:"rawName"`
	RelationForm string       `json:"relationForm,omitempty"`
	Connector    string       `json:"connector,omitempty"`
	TokenIndex   int          `json:"tokenIndex"`
	OffsetStart  int          `json:"offsetStart"`
	OffsetEnd    int          `json:"offsetEnd"`
	Descriptors  []Descriptor `json:"descriptors,omitempty"`
}

// Unit is the raw unit sub-record of a quantity.  The relation fields are
// only populated when reconciliation folds a duplicate related word back
// onto the unit.
type Unit struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	System      string `json:"system,omitempty"`
	OffsetStart int    `json:"offsetStart"`
	OffsetEnd   int    `json:"offsetEnd"`

	// After is the raw text between the number token and the token that
	// follows it, taken from the annotation.  A value of "-" marks a
	// hyphenated surface form ("10-m rod").
	After        string       `json:"after,omitempty"`
	TokenIndices []int        `json:"tokenIndices,omitempty"`
	TokenIndex   *int         `json:"tokenIndex,omitempty"`
	RelationForm string       `json:"relationForm,omitempty"`
	Connector    string       `json:"connector,omitempty"`
	Descriptors  []Descriptor `json:"descriptors,omitempty"`
}

// Quantity is one numeric endpoint of a measurement.
type Quantity struct {
	RawValue    string   `json:"rawValue"`
	ParsedValue *float64 `json:"parsedValue,omitempty"`
	Type        string   `json:"type,omitempty"`
	OffsetStart int      `json:"offsetStart"`
	OffsetEnd   int      `json:"offsetEnd"`
	TokenIndex  *int     `json:"tokenIndex,omitempty"`
	RawUnit     *Unit    `json:"rawUnit,omitempty"`
}

// Quantified is the substance sub-record emitted by the detector when a
// measurement counts things rather than carrying a unit ("28 tanks").
type Quantified struct {
	NormalizedName string `json:"normalizedName"`
	RawName        string `json:"rawName"`
	OffsetStart    int    `json:"offsetStart"`
	OffsetEnd      int    `json:"offsetEnd"`
	TokenIndex     *int   `json:"tokenIndex,omitempty"`

	// Populated by reconciliation when a related word duplicates the
	// quantified substance.
	RelationForm string       `json:"relationForm,omitempty"`
	Connector    string       `json:"connector,omitempty"`
	Descriptors  []Descriptor `json:"descriptors,omitempty"`
}

// Measurement is one detected measurement enriched with the relations the
// extraction engine found for it.  Field declaration order fixes the JSON
// key order of the full output record: adverbs, type, quantity,
// quantityLeast, quantityMost, quantified, related.
type Measurement struct {
	Adverbs       []RelatedWord `json:"adverbs,omitempty"`
	Type          Kind          `json:"type"`
	Quantity      *Quantity     `json:"quantity,omitempty"`
	QuantityLeast *Quantity     `json:"quantityLeast,omitempty"`
	QuantityMost  *Quantity     `json:"quantityMost,omitempty"`
	Quantified    *Quantified   `json:"quantified,omitempty"`
	Related       []RelatedWord `json:"related,omitempty"`
}

// KeyQuantity returns the quantity record that anchors the measurement:
// Quantity for scalar values, QuantityLeast (falling back to QuantityMost)
// for intervals.  It returns nil for unsupported kinds.
func (m *Measurement) KeyQuantity() *Quantity {
	switch m.Type {
	case KindValue:
		return m.Quantity
	case KindInterval:
		if m.QuantityLeast != nil {
			return m.QuantityLeast
		}
		return m.QuantityMost
	default:
		return nil
	}
}

// Simplified is the compact projection of a Measurement: just the numeric
// value(s), the unit, and the related words with their descriptor words.
// Field declaration order fixes the JSON key order: value, unit,
// quantified, related.
type Simplified struct {
	// Value holds a float64 for scalar measurements or a two-element
	// []float64 {least, most} for intervals.
	Value      interface{}         `json:"value"`
	Unit       string              `json:"unit,omitempty"`
	Quantified map[string][]string `json:"quantified,omitempty"`
	Related    map[string][]string `json:"related,omitempty"`
}

// Extraction is one sentence's worth of pipeline output.
type Extraction struct {
	SentenceIndex int            `json:"sentenceIndex"`
	Sentence      string         `json:"sentence"`
	Measurements  []*Measurement `json:"measurements"`
}
