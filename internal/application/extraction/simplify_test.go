package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

func f(v float64) *float64 { return &v }

func TestSimplifyScalar(t *testing.T) {
	m := &mtypes.Measurement{
		Type: mtypes.KindValue,
		Quantity: &mtypes.Quantity{
			RawValue:    "10",
			ParsedValue: f(10),
			RawUnit:     &mtypes.Unit{Name: "m"},
		},
		Related: []mtypes.RelatedWord{
			{RawName: "rod", Descriptors: []mtypes.Descriptor{
				{TokenIndex: 6, RawName: "steel"},
				{TokenIndex: 2, RawName: "long"},
			}},
		},
	}

	s, err := Simplify(m)
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Value)
	assert.Equal(t, "m", s.Unit)
	// Descriptor words come back ordered by token index.
	assert.Equal(t, []string{"long", "steel"}, s.Related["rod"])
}

func TestSimplifyInterval(t *testing.T) {
	m := &mtypes.Measurement{
		Type:          mtypes.KindInterval,
		QuantityLeast: &mtypes.Quantity{RawValue: "5", ParsedValue: f(5)},
		QuantityMost: &mtypes.Quantity{RawValue: "10", ParsedValue: f(10),
			RawUnit: &mtypes.Unit{Name: "kg"}},
	}

	s, err := Simplify(m)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{5.0, 10.0}, s.Value)
	assert.Equal(t, "kg", s.Unit)
}

func TestSimplifyFallsBackToRawValue(t *testing.T) {
	m := &mtypes.Measurement{
		Type:     mtypes.KindValue,
		Quantity: &mtypes.Quantity{RawValue: "ten"},
	}

	s, err := Simplify(m)
	require.NoError(t, err)
	assert.Equal(t, "ten", s.Value)
}

func TestSimplifyFailsWithoutValues(t *testing.T) {
	m := &mtypes.Measurement{
		Type:     mtypes.KindValue,
		Quantity: &mtypes.Quantity{},
	}

	_, err := Simplify(m)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoParsedValue))
}

func TestSimplifyUnitFallsBackToQuantified(t *testing.T) {
	m := &mtypes.Measurement{
		Type:     mtypes.KindValue,
		Quantity: &mtypes.Quantity{RawValue: "28", ParsedValue: f(28)},
		Quantified: &mtypes.Quantified{
			NormalizedName: "tanks",
			Descriptors:    []mtypes.Descriptor{{TokenIndex: 3, RawName: "enemy"}},
		},
	}

	s, err := Simplify(m)
	require.NoError(t, err)
	assert.Equal(t, "tanks", s.Unit)
	assert.Equal(t, []string{"enemy"}, s.Quantified["tanks"])
}

func TestSimplifyRejectsUnsupportedKind(t *testing.T) {
	_, err := Simplify(&mtypes.Measurement{Type: mtypes.KindList})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedQuantityKind))
}

func TestSimplifyExtractionDropsFailures(t *testing.T) {
	e := &mtypes.Extraction{
		Measurements: []*mtypes.Measurement{
			{Type: mtypes.KindValue, Quantity: &mtypes.Quantity{RawValue: "1", ParsedValue: f(1)}},
			{Type: mtypes.KindValue, Quantity: &mtypes.Quantity{}},
		},
	}

	out := SimplifyExtraction(e)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Value)
}
