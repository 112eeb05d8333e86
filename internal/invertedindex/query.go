// Package invertedindex implements the local full-text search shard
// (spec.md §4.1): query parsing into a boolean term tree, a BM25F+signal
// scorer, a top-K collector with approximate counting, and the
// GenericQuery executor for key-phrase and site-URL listing.
package invertedindex

import "strings"

// TermKind distinguishes the tagged term AST node kinds produced by
// parsing (spec.md §4.1 "tagged term AST with kinds").
type TermKind int

const (
	KindSimple TermKind = iota
	KindPhrase
	KindSite
	KindTitle
	KindBody
	KindUrl
	KindPossibleBang
	KindNot
)

// Term is one leaf of the parsed query: its kind plus the literal text
// (or, for Phrase, the ordered tokens; for Not, the wrapped inner term;
// for PossibleBang, the bang character and name).
type Term struct {
	Kind     TermKind
	Text     string
	Phrase   []string
	Inner    *Term
	BangChar rune
	BangName string
}

// ParseQuery tokenizes and tags raw query text into a flat list of Terms
// (spec.md §4.1 "For each SimpleOrPhrase the parser emits a disjunction
// over all searchable text fields").
func ParseQuery(raw string) ([]Term, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyQuery
	}

	var terms []Term
	fields := splitRespectingQuotesAndBang(raw)
	for _, f := range fields {
		t, err := parseOneField(f)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func splitRespectingQuotesAndBang(raw string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func parseOneField(f string) (Term, error) {
	negate := strings.HasPrefix(f, "-")
	if negate {
		f = f[1:]
	}
	t := parseFieldBody(f)
	if negate {
		inner := t
		return Term{Kind: KindNot, Inner: &inner}, nil
	}
	return t, nil
}

func parseFieldBody(f string) Term {
	switch {
	case strings.HasPrefix(f, "site:"):
		return Term{Kind: KindSite, Text: strings.TrimPrefix(f, "site:")}
	case strings.HasPrefix(f, "intitle:"):
		return Term{Kind: KindTitle, Text: strings.TrimPrefix(f, "intitle:")}
	case strings.HasPrefix(f, "inbody:"):
		return Term{Kind: KindBody, Text: strings.TrimPrefix(f, "inbody:")}
	case strings.HasPrefix(f, "url:"):
		return Term{Kind: KindUrl, Text: strings.TrimPrefix(f, "url:")}
	case strings.HasPrefix(f, "!") && len(f) > 1:
		r := []rune(f)
		return Term{Kind: KindPossibleBang, BangChar: '!', BangName: string(r[1:])}
	case strings.HasPrefix(f, `"`) && strings.HasSuffix(f, `"`) && len(f) >= 2:
		inner := strings.Trim(f, `"`)
		return Term{Kind: KindPhrase, Phrase: strings.Fields(inner)}
	default:
		return Term{Kind: KindSimple, Text: f}
	}
}
