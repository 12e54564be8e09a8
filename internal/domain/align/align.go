// Package align maps externally detected measurements onto the token store
// of an annotated sentence and classifies their surface format.  The
// resulting Match is the anchor the relation engine traverses from.
package align

import (
	"strings"

	"github.com/turtacn/MeasureLink/internal/domain/annotation"
	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Format is the surface arrangement of a number and its unit.
type Format string

const (
	// FormatAttached marks a unit sharing a token with its number ("10m").
	FormatAttached Format = "attached"
	// FormatHyphenated marks a unit joined to its number by a hyphen ("10-m").
	FormatHyphenated Format = "hyphenated"
	// FormatSpaceBetween marks a unit separated from its number ("10 m").
	FormatSpaceBetween Format = "space_between"
	// FormatUncertain is the fallback bucket pattern rules may be tagged
	// with; it is never produced by classification.
	FormatUncertain Format = "uncertain"
)

// Match is one detected measurement aligned onto the sentence's tokens.
type Match struct {
	Format           Format
	UnitTokenIndices []int
	UnitText         string
	NumberTokenIndex int
	NumberText       string
	Payload          *mtypes.Measurement
}

// Anchors returns the token indices the relation engine starts its sibling
// scan from: the unit token indices (or the quantified stand-in).
func (m *Match) Anchors() []int { return m.UnitTokenIndices }

// Align maps one detected measurement onto the sentence's tokens and
// classifies its format.
//
// Error semantics follow the measurement's failure mode:
//   - a type other than value/interval returns UnsupportedQuantityKind;
//   - a number whose offset matches no token boundary returns AlignmentGap;
//   - a unit-less measurement whose quantified entity lacks a resolvable
//     token returns QuantifiedNoToken, which callers treat as a soft skip.
func Align(m *mtypes.Measurement, store *annotation.Store) (*Match, error) {
	if m.Type != mtypes.KindValue && m.Type != mtypes.KindInterval {
		return nil, errors.Newf(errors.ErrCodeUnsupportedQuantityKind,
			"measurement type %q is not supported", m.Type)
	}
	key := m.KeyQuantity()
	if key == nil {
		return nil, errors.Newf(errors.ErrCodeUnsupportedQuantityKind,
			"measurement of type %q has no quantity record", m.Type)
	}

	numIdx, ok := store.IndexAtStart(key.OffsetStart)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeAlignmentGap,
			"no token starts at offset %d for value %q", key.OffsetStart, key.RawValue)
	}
	key.TokenIndex = &numIdx

	match := &Match{
		NumberTokenIndex: numIdx,
		NumberText:       numberText(m, key),
		Payload:          m,
	}

	switch {
	case key.RawUnit != nil:
		alignUnit(key, store, numIdx)
		match.UnitText = key.RawUnit.Name
		match.UnitTokenIndices = key.RawUnit.TokenIndices
		match.Format = classify(key, numIdx)
		// The quantified record still gets a token index when resolvable,
		// so reconciliation can fold duplicates back onto it.
		if m.Quantified != nil {
			alignQuantified(m.Quantified, store)
		}
	case m.Quantified != nil:
		if !alignQuantified(m.Quantified, store) {
			return nil, errors.Newf(errors.ErrCodeQuantifiedNoToken,
				"quantified entity %q has no resolvable token", m.Quantified.NormalizedName)
		}
		match.Format = FormatSpaceBetween
		match.UnitText = m.Quantified.NormalizedName
		match.UnitTokenIndices = []int{*m.Quantified.TokenIndex}
	default:
		// Nothing to anchor related-word traversal on.
		return nil, errors.Newf(errors.ErrCodeAlignmentGap,
			"measurement %q carries neither a unit nor a quantified entity", key.RawValue)
	}

	return match, nil
}

// numberText derives the tracked number text: the raw value for scalars,
// "<least> to <most>" for intervals with both endpoints.
func numberText(m *mtypes.Measurement, key *mtypes.Quantity) string {
	if m.Type == mtypes.KindInterval {
		if m.QuantityLeast != nil && m.QuantityMost != nil {
			return m.QuantityLeast.RawValue + " to " + m.QuantityMost.RawValue
		}
	}
	return key.RawValue
}

// alignUnit resolves the unit's token indices from its character offsets
// and records the inter-token text used for the hyphenation check.
func alignUnit(key *mtypes.Quantity, store *annotation.Store, numIdx int) {
	unit := key.RawUnit
	if numTok, err := store.ByIndex(numIdx); err == nil {
		unit.After = numTok.After
	}

	var indices []int
	if idx, ok := store.IndexAtStart(unit.OffsetStart); ok {
		indices = append(indices, idx)
	}
	if idx, ok := store.IndexAtEnd(unit.OffsetEnd); ok {
		indices = append(indices, idx)
	}
	// A unit starting exactly where the number ends shares its token ("10m").
	if unit.OffsetStart == key.OffsetEnd {
		indices = append(indices, numIdx)
	}
	unit.TokenIndices = dedupeInts(indices)
}

// classify applies the format rules in priority order.
func classify(key *mtypes.Quantity, numIdx int) Format {
	for _, idx := range key.RawUnit.TokenIndices {
		if idx == numIdx {
			return FormatAttached
		}
	}
	if key.RawUnit.After == "-" {
		return FormatHyphenated
	}
	return FormatSpaceBetween
}

// alignQuantified resolves the quantified entity's token index.  When the
// detector returned a multi-word raw name, the reported start offset points
// at the first word of the phrase; skip leading words until the one holding
// the normalized name.
func alignQuantified(q *mtypes.Quantified, store *annotation.Store) bool {
	offset := q.OffsetStart
	if strings.Contains(q.RawName, " ") {
		for _, w := range strings.Split(q.RawName, " ") {
			if strings.Contains(w, q.NormalizedName) {
				break
			}
			offset += len(w) + 1
		}
		q.OffsetStart = offset
	}
	idx, ok := store.IndexAtStart(offset)
	if !ok {
		return false
	}
	q.TokenIndex = &idx
	return true
}

func dedupeInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
