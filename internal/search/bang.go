// Package search implements the distributed search coordinator (spec.md
// §4.6, §6): fan-out round 1 (Search), global top-K merge with
// deterministic tie-break, scatter round 2 (RetrieveWebsites), bang
// short-circuit, and the live-index ShardedClient replica-selection path.
package search

import (
	"strings"

	"github.com/stract/stract/internal/invertedindex"
)

// Bang is one `!tag` redirect definition (spec.md §8 scenario 4).
type Bang struct {
	Tag string
	Url string // contains the literal placeholder "{{{s}}}" for the query remainder
}

// BangHit is returned instead of a search when the query's first bang
// term matches a configured Bang (spec.md §4.6 "Bang handling").
type BangHit struct {
	RedirectUrl string
}

// BangRegistry resolves `!tag` terms to their redirect Bang.
type BangRegistry struct {
	byTag map[string]Bang
}

// NewBangRegistry indexes bangs by tag.
func NewBangRegistry(bangs []Bang) *BangRegistry {
	r := &BangRegistry{byTag: make(map[string]Bang, len(bangs))}
	for _, b := range bangs {
		r.byTag[b.Tag] = b
	}
	return r
}

// MatchQuery checks query for a leading `!tag` bang term and, if one
// resolves, returns the redirect response (spec.md §4.6 "Before fan-out,
// if any query term matches a bang ... short-circuits to a redirect
// response instead of searching"; spec.md §8 scenario 4).
func (r *BangRegistry) MatchQuery(query string) (BangHit, bool) {
	terms, err := invertedindex.ParseQuery(query)
	if err != nil {
		return BangHit{}, false
	}

	var rest []string
	matched := Bang{}
	found := false
	for _, t := range terms {
		if t.Kind == invertedindex.KindPossibleBang {
			if b, ok := r.byTag[t.BangName]; ok && !found {
				matched = b
				found = true
				continue
			}
		}
		rest = append(rest, termLiteral(t))
	}
	if !found {
		return BangHit{}, false
	}
	return BangHit{RedirectUrl: strings.ReplaceAll(matched.Url, "{{{s}}}", strings.Join(rest, " "))}, true
}

func termLiteral(t invertedindex.Term) string {
	if t.Kind == invertedindex.KindPhrase {
		return strings.Join(t.Phrase, " ")
	}
	return t.Text
}
