package extraction

import (
	"sort"

	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Simplify reduces one measurement to its compact projection: numeric
// value(s), unit, and the quantified/related words mapped to their
// descriptor words.  It fails with NoParsedValue when an endpoint carries
// neither a parsed nor a raw value.
func Simplify(m *mtypes.Measurement) (*mtypes.Simplified, error) {
	var endpoints []*mtypes.Quantity
	switch m.Type {
	case mtypes.KindValue:
		endpoints = []*mtypes.Quantity{m.Quantity}
	case mtypes.KindInterval:
		endpoints = []*mtypes.Quantity{m.QuantityLeast, m.QuantityMost}
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedQuantityKind,
			"cannot simplify measurement of type %q", m.Type)
	}

	simplified := &mtypes.Simplified{}
	var values []interface{}
	for _, q := range endpoints {
		if q == nil {
			continue
		}
		switch {
		case q.ParsedValue != nil:
			values = append(values, *q.ParsedValue)
		case q.RawValue != "":
			values = append(values, q.RawValue)
		default:
			return nil, errors.New(errors.ErrCodeNoParsedValue,
				"measurement endpoint has neither parsed nor raw value")
		}
		if q.RawUnit != nil {
			simplified.Unit = q.RawUnit.Name
		}
	}
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeNoParsedValue,
			"measurement has no quantity endpoints")
	}
	if len(values) == 1 {
		simplified.Value = values[0]
	} else {
		simplified.Value = values
	}

	if m.Quantified != nil {
		if simplified.Unit == "" {
			simplified.Unit = m.Quantified.NormalizedName
		}
		simplified.Quantified = map[string][]string{
			m.Quantified.NormalizedName: descriptorWords(m.Quantified.Descriptors),
		}
	}

	if len(m.Related) > 0 {
		simplified.Related = make(map[string][]string, len(m.Related))
		for _, r := range m.Related {
			simplified.Related[r.RawName] = descriptorWords(r.Descriptors)
		}
	}

	return simplified, nil
}

// SimplifyExtraction simplifies every measurement in an extraction,
// dropping the ones that cannot be simplified.
func SimplifyExtraction(e *mtypes.Extraction) []*mtypes.Simplified {
	out := make([]*mtypes.Simplified, 0, len(e.Measurements))
	for _, m := range e.Measurements {
		s, err := Simplify(m)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// descriptorWords returns descriptor raw names ordered by ascending token
// index.  The result is never nil so the projection serializes as [].
func descriptorWords(descriptors []mtypes.Descriptor) []string {
	sorted := make([]mtypes.Descriptor, len(descriptors))
	copy(sorted, descriptors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TokenIndex < sorted[j].TokenIndex
	})
	words := make([]string, 0, len(sorted))
	for _, d := range sorted {
		words = append(words, d.RawName)
	}
	return words
}
