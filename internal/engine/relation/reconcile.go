package relation

import (
	"strings"

	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// reconcileTarget is one of a measurement's own semantic fields and the
// texts a related word may duplicate.
type reconcileTarget struct {
	num        string
	unit       string
	quantified string
	unitRec    *mtypes.Unit
	quantRec   *mtypes.Quantified
}

// Reconcile removes related words that duplicate the measurement's own
// number, unit, or quantified texts (or their concatenation, or any word
// containing the quantified name).  A removed word that equaled the unit
// or quantified text folds its extra attributes back onto that sub-record
// so no information is lost, just the duplicate role.
func Reconcile(related []mtypes.RelatedWord, m *mtypes.Measurement) []mtypes.RelatedWord {
	if len(related) == 0 || m == nil {
		return related
	}

	var targets []reconcileTarget
	for _, q := range []*mtypes.Quantity{m.Quantity, m.QuantityLeast, m.QuantityMost} {
		if q == nil {
			continue
		}
		t := reconcileTarget{num: q.RawValue}
		if q.RawUnit != nil {
			t.unit = q.RawUnit.Name
			t.unitRec = q.RawUnit
		}
		targets = append(targets, t)
	}
	if m.Quantified != nil {
		targets = append(targets, reconcileTarget{
			quantified: m.Quantified.NormalizedName,
			quantRec:   m.Quantified,
		})
	}

	for _, t := range targets {
		kept := related[:0]
		for _, r := range related {
			if !t.duplicates(r.RawName) {
				kept = append(kept, r)
				continue
			}
			switch {
			case t.unitRec != nil && r.RawName == t.unit:
				foldIntoUnit(t.unitRec, r)
			case t.quantRec != nil && r.RawName == t.quantified:
				foldIntoQuantified(t.quantRec, r)
			}
		}
		related = kept
	}
	return related
}

// duplicates reports whether rawName collides with one of the target's
// comparison texts.
func (t reconcileTarget) duplicates(rawName string) bool {
	for _, text := range []string{t.num, t.unit, t.quantified, t.num + t.unit} {
		if text != "" && rawName == text {
			return true
		}
	}
	return t.quantified != "" && strings.Contains(rawName, t.quantified)
}

// foldIntoUnit copies the removed word's relation attributes onto the unit
// sub-record where the unit does not already carry them.
func foldIntoUnit(u *mtypes.Unit, r mtypes.RelatedWord) {
	if u.RelationForm == "" {
		u.RelationForm = r.RelationForm
	}
	if u.Connector == "" {
		u.Connector = r.Connector
	}
	if u.TokenIndex == nil {
		idx := r.TokenIndex
		u.TokenIndex = &idx
	}
	if len(u.Descriptors) == 0 {
		u.Descriptors = r.Descriptors
	}
}

// foldIntoQuantified is the symmetric copy-back for the quantified record.
func foldIntoQuantified(q *mtypes.Quantified, r mtypes.RelatedWord) {
	if q.RelationForm == "" {
		q.RelationForm = r.RelationForm
	}
	if q.Connector == "" {
		q.Connector = r.Connector
	}
	if q.TokenIndex == nil {
		idx := r.TokenIndex
		q.TokenIndex = &idx
	}
	if len(q.Descriptors) == 0 {
		q.Descriptors = r.Descriptors
	}
}
