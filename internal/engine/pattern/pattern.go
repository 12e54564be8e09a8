// Package pattern loads and validates the declarative dependency-pattern
// rule document that drives relation extraction.  A rule set is immutable
// after load and safe to share across sentences and workers.
package pattern

import (
	"sort"

	"github.com/turtacn/MeasureLink/internal/domain/align"
)

// PredicateKind is the part-of-speech test applied to a sibling token.
type PredicateKind int

const (
	// PredicatePosIn passes when the configured tag is a substring of the
	// sibling's POS ("NN" matches NN, NNS, NNP).
	PredicatePosIn PredicateKind = iota
	// PredicatePosEquals passes on exact POS equality.
	PredicatePosEquals
	// PredicatePosNot passes when the sibling's POS equals none of the
	// rule's other configured POS keys.  An exclusion test, not a literal
	// negation of one tag.
	PredicatePosNot
)

// ActionKind selects what a predicate emits on success.
type ActionKind int

const (
	// ActionEmitSibling emits the sibling itself as a related word.
	ActionEmitSibling ActionKind = iota
	// ActionChaseCousin runs a cousin search rooted at the sibling and
	// emits the results, with the sibling as connector.
	ActionChaseCousin
	// ActionReplaceWithSibling discards any candidates accumulated for
	// this predicate and emits only the sibling (the compound-noun case).
	ActionReplaceWithSibling
)

// ElsePolicy controls whether the sibling itself is also emitted around a
// cousin search.
type ElsePolicy int

const (
	// ElseNone never emits the sibling alongside cousin results.
	ElseNone ElsePolicy = iota
	// ElseAlways emits the sibling in addition to any cousin results.
	ElseAlways
	// ElseIfNoCousin emits the sibling only when the cousin search came
	// back empty.
	ElseIfNoCousin
)

// Action is the tagged variant evaluated by the engine's interpreter.
type Action struct {
	Kind         ActionKind
	CousinLabels []string
	Else         ElsePolicy
}

// Predicate pairs one POS test with the action taken when it passes.
type Predicate struct {
	Kind   PredicateKind
	POS    string
	Action Action
}

// Rule is the compiled rule for one relation label (flat) or one
// family:subtype composite (enhanced).  Predicates run in document order.
type Rule struct {
	Predicates []Predicate

	formats map[align.Format]struct{}
	posKeys map[string]struct{}
}

// AppliesTo reports whether the rule is tagged for the given format.
func (r *Rule) AppliesTo(f align.Format) bool {
	_, ok := r.formats[f]
	return ok
}

// ExcludesPOS reports whether pos is one of the rule's configured POS keys;
// the pos_not predicate passes when this is false.
func (r *Rule) ExcludesPOS(pos string) bool {
	_, ok := r.posKeys[pos]
	return ok
}

// Set is the full compiled rule document: relation rules keyed by their
// effective label plus the operator trigger words.
type Set struct {
	rules     map[string]*Rule
	operators map[string]struct{}
}

// Lookup resolves the rule for a relation label, filtered to the given
// measurement format.  Enhanced subtypes are pre-expanded into composite
// "family:subtype" keys at load time, so a single lookup serves both modes.
// A missing or format-mismatched entry is not an error; it simply yields
// no match.
func (s *Set) Lookup(label string, format align.Format) (*Rule, bool) {
	r, ok := s.rules[label]
	if !ok || !r.AppliesTo(format) {
		return nil, false
	}
	return r, true
}

// IsOperator reports whether word is a configured operator trigger word
// (checked by exact surface equality).
func (s *Set) IsOperator(word string) bool {
	_, ok := s.operators[word]
	return ok
}

// Labels returns every effective relation label in the set, sorted.
func (s *Set) Labels() []string {
	labels := make([]string, 0, len(s.rules))
	for l := range s.rules {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Operators returns the configured operator words, sorted.
func (s *Set) Operators() []string {
	ops := make([]string, 0, len(s.operators))
	for o := range s.operators {
		ops = append(ops, o)
	}
	sort.Strings(ops)
	return ops
}
