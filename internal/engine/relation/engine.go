// Package relation implements rule-driven traversal of the sentence graph:
// finding the words related to an aligned measurement, their descriptors,
// qualifying adverbs, and operator words.
package relation

import (
	"sort"
	"strings"

	"github.com/turtacn/MeasureLink/internal/domain/align"
	"github.com/turtacn/MeasureLink/internal/domain/annotation"
	"github.com/turtacn/MeasureLink/internal/domain/graph"
	"github.com/turtacn/MeasureLink/internal/engine/pattern"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// verbChaseLabels is the fixed label set used when cousin search recurses
// through a linking verb to reach its logical subject.
var verbChaseLabels = []string{"nsubj", "nsubjpass", "acl"}

// Context carries the sentence-scoped state one traversal runs against.
// Contexts are cheap and must not be shared across sentences; the tracked
// number word differs per Match, so each Match gets its own Context.
type Context struct {
	Graph      *graph.SentenceGraph
	Store      *annotation.Store
	NumberWord string
}

// Engine interprets the pattern rule set against sentence graphs.  It is
// stateless between calls and safe for concurrent use.
type Engine struct {
	rules  *pattern.Set
	logger logging.Logger
}

// New builds an Engine over an immutable rule set.
func New(rules *pattern.Set, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{rules: rules, logger: logger.Named("relation")}
}

// FindRelated walks every graph edge from the anchor token indices,
// applies the rule set filtered to the measurement format, and returns the
// related words with their descriptors attached.  When the first pass
// matches no rule at all the scan is retried once with the uncertain
// format; the passes are never merged.
func (e *Engine) FindRelated(ctx *Context, anchors []int, format align.Format) ([]mtypes.RelatedWord, error) {
	related, matched, err := e.scan(ctx, anchors, format)
	if err != nil {
		return nil, err
	}
	if !matched && format != align.FormatUncertain {
		related, _, err = e.scan(ctx, anchors, align.FormatUncertain)
		if err != nil {
			return nil, err
		}
	}
	return e.augmentDescriptors(ctx, related)
}

// FindAdverbs runs the same traversal rooted at the number token and keeps
// only entries produced by an advmod relation.  Connector and descriptors
// are meaningless for adverbs and are stripped.
func (e *Engine) FindAdverbs(ctx *Context, numberIdx int, format align.Format) ([]mtypes.RelatedWord, error) {
	scanned, err := e.FindRelated(ctx, []int{numberIdx}, format)
	if err != nil {
		return nil, err
	}
	var adverbs []mtypes.RelatedWord
	for _, r := range scanned {
		if r.RelationForm != "advmod" {
			continue
		}
		r.Connector = ""
		r.Descriptors = nil
		adverbs = append(adverbs, r)
	}
	return adverbs, nil
}

// scan is the sibling pass: rule dispatch plus the operator-word check.
// The second result reports whether any rule matched an edge at all.
func (e *Engine) scan(ctx *Context, anchors []int, format align.Format) ([]mtypes.RelatedWord, bool, error) {
	var related []mtypes.RelatedWord
	matched := false
	var err error

	for _, edge := range ctx.Graph.Edges() {
		for _, anchor := range anchors {
			sib, ok := ctx.Graph.Other(edge, anchor, ctx.NumberWord)
			if !ok {
				continue
			}
			if rule, ok := e.rules.Lookup(edge.Label, format); ok {
				matched = true
				related, err = e.applyRule(ctx, rule, edge.Label, sib, related)
				if err != nil {
					return nil, false, err
				}
			}
			if e.rules.IsOperator(ctx.Graph.Word(sib)) {
				for _, w := range e.cousins(ctx, sib, []string{"nsubj"}, map[int]int{}) {
					related, err = e.appendWord(ctx, related, w, "operator", "")
					if err != nil {
						return nil, false, err
					}
				}
			}
		}
	}
	return related, matched, nil
}

// applyRule evaluates a rule's predicates against one sibling in document
// order and interprets the action of every predicate that passes.
func (e *Engine) applyRule(ctx *Context, rule *pattern.Rule, label string, sib int, related []mtypes.RelatedWord) ([]mtypes.RelatedWord, error) {
	sibWord := ctx.Graph.Word(sib)
	sibPOS := ctx.Graph.POS(sib)
	var err error

	for _, pred := range rule.Predicates {
		pass := false
		switch pred.Kind {
		case pattern.PredicatePosIn:
			pass = strings.Contains(sibPOS, pred.POS)
		case pattern.PredicatePosEquals:
			pass = sibPOS == pred.POS
		case pattern.PredicatePosNot:
			pass = !rule.ExcludesPOS(sibPOS)
		}
		if !pass {
			continue
		}

		switch pred.Action.Kind {
		case pattern.ActionEmitSibling, pattern.ActionReplaceWithSibling:
			related, err = e.appendIndexed(ctx, related, sibWord, label, "", sib)
		case pattern.ActionChaseCousin:
			cousins := e.cousins(ctx, sib, pred.Action.CousinLabels, map[int]int{})
			if pred.Action.Else == pattern.ElseAlways {
				related, err = e.appendIndexed(ctx, related, sibWord, label, sibWord, sib)
				if err != nil {
					return nil, err
				}
			}
			if len(cousins) > 0 {
				for _, w := range cousins {
					related, err = e.appendWord(ctx, related, w, label, sibWord)
					if err != nil {
						return nil, err
					}
				}
			} else if pred.Action.Else == pattern.ElseIfNoCousin {
				related, err = e.appendIndexed(ctx, related, sibWord, label, sibWord, sib)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return related, nil
}

// cousins finds second-degree relations: edges from root whose label
// contains one of the allowed labels, accepting nominal/pronominal tokens
// and recursing through verbal ones toward their subjects.  The shared
// visit counter caps each node at two expansions so two mutually linked
// verbs cannot bounce the recursion forever.  Duplicates collapse,
// first-seen order is kept.
func (e *Engine) cousins(ctx *Context, root int, labels []string, visits map[int]int) []string {
	var words []string
	for _, label := range labels {
		for _, edge := range ctx.Graph.Edges() {
			c, ok := ctx.Graph.Other(edge, root, ctx.NumberWord)
			if !ok {
				continue
			}
			visits[c]++
			if !strings.Contains(edge.Label, label) {
				continue
			}
			pos := ctx.Graph.POS(c)
			switch {
			case strings.Contains(pos, "NN") || strings.Contains(pos, "PR"):
				words = append(words, ctx.Graph.Word(c))
			case strings.Contains(pos, "VB") && visits[c] <= 2:
				words = append(words, e.cousins(ctx, c, verbChaseLabels, visits)...)
			}
		}
	}
	return dedupeStrings(words)
}

// augmentDescriptors attaches adjectival and amod/compound siblings to
// every related word as descriptors, ordered by ascending token index.
// A nominal sibling reached via amod additionally triggers one nmod cousin
// hop whose results fold back into the related list with the descriptor
// word as connector; those new entries are scanned for descriptors too.
func (e *Engine) augmentDescriptors(ctx *Context, related []mtypes.RelatedWord) ([]mtypes.RelatedWord, error) {
	var err error
	for i := 0; i < len(related); i++ {
		var descs []mtypes.Descriptor
		for _, edge := range ctx.Graph.Edges() {
			sib, ok := ctx.Graph.Other(edge, related[i].TokenIndex, ctx.NumberWord)
			if !ok {
				continue
			}
			pos := ctx.Graph.POS(sib)
			if pos == "JJ" || edge.Label == "amod" || edge.Label == "compound" {
				descs = append(descs, mtypes.Descriptor{TokenIndex: sib, RawName: ctx.Graph.Word(sib)})
			}
			if strings.Contains(pos, "NN") && strings.Contains(edge.Label, "amod") {
				for _, w := range e.cousins(ctx, sib, []string{"nmod"}, map[int]int{}) {
					related, err = e.appendWord(ctx, related, w, "nmod", ctx.Graph.Word(sib))
					if err != nil {
						return nil, err
					}
				}
			}
		}
		sort.SliceStable(descs, func(a, b int) bool { return descs[a].TokenIndex < descs[b].TokenIndex })
		related[i].Descriptors = descs
	}
	return related, nil
}

// appendWord resolves a cousin word back to its token and appends it.
// Cousin words come from graph node glosses, so an unresolvable word means
// the caller mixed state from different sentences; that is fatal.
func (e *Engine) appendWord(ctx *Context, related []mtypes.RelatedWord, word, relationForm, connector string) ([]mtypes.RelatedWord, error) {
	idx, ok := ctx.Store.IndexOfWord(word)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownToken,
			"related word %q resolves to no token in this sentence", word)
	}
	return e.appendIndexed(ctx, related, word, relationForm, connector, idx)
}

// appendIndexed appends one related word unless a structurally identical
// entry is already present.
func (e *Engine) appendIndexed(ctx *Context, related []mtypes.RelatedWord, word, relationForm, connector string, idx int) ([]mtypes.RelatedWord, error) {
	tok, err := ctx.Store.ByIndex(idx)
	if err != nil {
		return nil, err
	}
	entry := mtypes.RelatedWord{
		RawName:      word,
		RelationForm: relationForm,
		Connector:    connector,
		TokenIndex:   idx,
		OffsetStart:  tok.CharacterStart,
		OffsetEnd:    tok.CharacterEnd,
	}
	for _, r := range related {
		if sameRelated(r, entry) {
			return related, nil
		}
	}
	return append(related, entry), nil
}

// sameRelated compares everything but descriptors, which are attached in a
// later phase.
func sameRelated(a, b mtypes.RelatedWord) bool {
	return a.RawName == b.RawName &&
		a.RelationForm == b.RelationForm &&
		a.Connector == b.Connector &&
		a.TokenIndex == b.TokenIndex &&
		a.OffsetStart == b.OffsetStart &&
		a.OffsetEnd == b.OffsetEnd
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, w := range in {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
