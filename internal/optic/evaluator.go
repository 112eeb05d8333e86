package optic

import "strings"

// Document is the minimal view of a document an Optic program matches
// against — callers project their richer document representation into
// this shape before calling Evaluate.
type Document struct {
	Site            string
	Domain          string
	Url             string
	Title           string
	Description     string
	Content         string
	MicroformatTags []string
	SchemaTypes     []string
}

func (d Document) field(f Field) []string {
	switch f {
	case FieldSite:
		return []string{d.Site}
	case FieldDomain:
		return []string{d.Domain}
	case FieldUrl:
		return []string{d.Url}
	case FieldTitle:
		return []string{d.Title}
	case FieldDescription:
		return []string{d.Description}
	case FieldContent:
		return []string{d.Content}
	case FieldMicroformatTag:
		return d.MicroformatTags
	case FieldSchema:
		return d.SchemaTypes
	default:
		return nil
	}
}

// matchesPattern supports a pattern parts grammar of Raw(token) joined by
// `*` wildcards, with a leading/trailing `|` anchoring the match to the
// start/end of the field value (spec.md §3 "pattern composed of
// {Raw(token), Wildcard, Anchor} parts").
func matchesPattern(pattern, value string) bool {
	anchorStart := strings.HasPrefix(pattern, "|")
	anchorEnd := strings.HasSuffix(pattern, "|")
	trimmed := strings.Trim(pattern, "|")
	parts := strings.Split(trimmed, "*")

	rest := value
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		if i == 0 && anchorStart && idx != 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	if anchorEnd {
		last := parts[len(parts)-1]
		return strings.HasSuffix(value, last)
	}
	return true
}

// Result is the outcome of evaluating an Optic against one document:
// matched rules (for scoring), whether the document should be discarded,
// and the net additive boost/downrank coefficient.
type Result struct {
	MatchedRules []Rule
	Discard      bool
	Boost        float64
}

// Evaluate applies every rule in o to doc, following "rule composition is
// union" (spec.md §6): any rule whose Matches block is fully satisfied
// contributes its action.
func Evaluate(o *Optic, doc Document) Result {
	res := Result{}
	anyMatched := false
	for _, rule := range o.Rules {
		if !ruleMatches(rule, doc) {
			continue
		}
		anyMatched = true
		res.MatchedRules = append(res.MatchedRules, rule)
		switch rule.Action.Kind {
		case ActionBoost:
			res.Boost += rule.Action.Coefficient
		case ActionDownrank:
			res.Boost -= rule.Action.Coefficient
		case ActionDiscard:
			res.Discard = true
		}
	}
	if o.DiscardNonMatching && !anyMatched {
		res.Discard = true
	}
	return res
}

func ruleMatches(rule Rule, doc Document) bool {
	for _, m := range rule.Matches {
		if !matchLocationSatisfied(m, doc) {
			return false
		}
	}
	return true
}

func matchLocationSatisfied(m MatchLocation, doc Document) bool {
	for _, v := range doc.field(m.Field) {
		if matchesPattern(m.Pattern, v) {
			return true
		}
	}
	return false
}

// RankingCoefficients resolves the named signal-coefficient overrides in
// o into a map, for the scorer to consult alongside its own defaults.
func RankingCoefficients(o *Optic) map[string]float64 {
	out := make(map[string]float64, len(o.RankingOverrides))
	for _, ov := range o.RankingOverrides {
		out[ov.Signal] = ov.Coefficient
	}
	return out
}
