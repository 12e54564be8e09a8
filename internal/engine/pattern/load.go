package pattern

import (
	"encoding/json"
	"os"

	"github.com/turtacn/MeasureLink/internal/domain/align"
	"github.com/turtacn/MeasureLink/pkg/errors"
)

// fileDocument is the on-disk shape of a rule document.
type fileDocument struct {
	Relations map[string]*fileRelation `json:"relations"`
	Operators []string                 `json:"operators"`
}

// fileRelation is either a flat rule (Formats/Predicates set directly) or
// an enhanced family (Enhanced true, per-subtype sub-rules).
type fileRelation struct {
	Enhanced   bool                 `json:"enhanced,omitempty"`
	Subtypes   map[string]*fileRule `json:"subtypes,omitempty"`
	Formats    []string             `json:"formats,omitempty"`
	Predicates []filePredicate      `json:"predicates,omitempty"`
}

type fileRule struct {
	Formats    []string        `json:"formats"`
	Predicates []filePredicate `json:"predicates"`
}

type filePredicate struct {
	Match        string   `json:"match"`
	POS          string   `json:"pos"`
	Action       string   `json:"action,omitempty"`
	CousinLabels []string `json:"cousin_labels,omitempty"`
	Else         string   `json:"else,omitempty"`
}

// Load reads and compiles the rule document at path.  Any structural
// problem is fatal: the engine refuses partial rule sets.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternFileMissing,
			"failed to read pattern rule file "+path)
	}
	return Parse(data)
}

// Parse compiles a rule document from raw JSON.
func Parse(data []byte) (*Set, error) {
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidPatternConfig,
			"pattern rule document is not valid JSON")
	}
	if len(doc.Relations) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPatternConfig,
			"pattern rule document defines no relations")
	}

	s := &Set{
		rules:     make(map[string]*Rule),
		operators: make(map[string]struct{}, len(doc.Operators)),
	}
	for label, rel := range doc.Relations {
		if rel == nil {
			return nil, errors.Newf(errors.ErrCodeInvalidPatternConfig,
				"relation %q is empty", label)
		}
		if rel.Enhanced {
			if len(rel.Subtypes) == 0 {
				return nil, errors.Newf(errors.ErrCodeInvalidPatternConfig,
					"enhanced relation %q has no subtypes", label)
			}
			if len(rel.Formats) > 0 || len(rel.Predicates) > 0 {
				return nil, errors.Newf(errors.ErrCodeInvalidPatternConfig,
					"enhanced relation %q must not carry formats or predicates directly", label)
			}
			for sub, fr := range rel.Subtypes {
				composite := label + ":" + sub
				rule, err := compileRule(composite, fr.Formats, fr.Predicates)
				if err != nil {
					return nil, err
				}
				s.rules[composite] = rule
			}
			continue
		}
		rule, err := compileRule(label, rel.Formats, rel.Predicates)
		if err != nil {
			return nil, err
		}
		s.rules[label] = rule
	}
	for _, op := range doc.Operators {
		s.operators[op] = struct{}{}
	}
	return s, nil
}

func compileRule(label string, formats []string, preds []filePredicate) (*Rule, error) {
	if len(formats) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPatternConfig,
			"rule %q lists no measurement formats", label)
	}
	if len(preds) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPatternConfig,
			"rule %q lists no predicates", label)
	}

	rule := &Rule{
		formats: make(map[align.Format]struct{}, len(formats)),
		posKeys: make(map[string]struct{}, len(preds)),
	}
	for _, f := range formats {
		switch format := align.Format(f); format {
		case align.FormatAttached, align.FormatHyphenated, align.FormatSpaceBetween, align.FormatUncertain:
			rule.formats[format] = struct{}{}
		default:
			return nil, errors.Newf(errors.ErrCodeInvalidPatternConfig,
				"rule %q lists unknown measurement format %q", label, f)
		}
	}
	for _, fp := range preds {
		p, err := compilePredicate(label, fp)
		if err != nil {
			return nil, err
		}
		rule.Predicates = append(rule.Predicates, p)
		if p.Kind != PredicatePosNot {
			rule.posKeys[p.POS] = struct{}{}
		}
	}
	return rule, nil
}

func compilePredicate(label string, fp filePredicate) (Predicate, error) {
	var p Predicate

	switch fp.Match {
	case "pos_in":
		p.Kind = PredicatePosIn
	case "pos_equals":
		p.Kind = PredicatePosEquals
	case "pos_not":
		p.Kind = PredicatePosNot
	default:
		return p, errors.Newf(errors.ErrCodeUnknownPredicate,
			"rule %q uses unknown predicate kind %q", label, fp.Match)
	}
	if fp.POS == "" {
		return p, errors.Newf(errors.ErrCodeInvalidPatternConfig,
			"rule %q has a predicate with no pos tag", label)
	}
	p.POS = fp.POS

	switch fp.Action {
	case "", "emit_sibling":
		p.Action.Kind = ActionEmitSibling
	case "chase_cousin":
		p.Action.Kind = ActionChaseCousin
		if len(fp.CousinLabels) == 0 {
			return p, errors.Newf(errors.ErrCodeInvalidPatternConfig,
				"rule %q chases cousins but lists no cousin_labels", label)
		}
		p.Action.CousinLabels = fp.CousinLabels
	case "replace_with_sibling":
		p.Action.Kind = ActionReplaceWithSibling
	default:
		return p, errors.Newf(errors.ErrCodeInvalidPatternConfig,
			"rule %q uses unknown action %q", label, fp.Action)
	}

	switch fp.Else {
	case "":
		p.Action.Else = ElseNone
	case "always":
		p.Action.Else = ElseAlways
	case "if_no_cousin":
		p.Action.Else = ElseIfNoCousin
	default:
		return p, errors.Newf(errors.ErrCodeInvalidPatternConfig,
			"rule %q uses unknown else policy %q", label, fp.Else)
	}
	if p.Action.Else != ElseNone && p.Action.Kind != ActionChaseCousin {
		return p, errors.Newf(errors.ErrCodeInvalidPatternConfig,
			"rule %q sets an else policy on a non-cousin action", label)
	}
	return p, nil
}
