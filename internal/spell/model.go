// Package spell implements the query-time spell/LM auxiliary (spec.md
// §4.8): a per-language trigram stupid-backoff language model plus
// edit-distance candidate generation, used to correct a normalized query
// token against its surrounding context. Training the model is out of
// scope (spec.md §1); this package only implements the query-time
// contract, though Train below is provided as the minimal fixture the
// rest of this package's tests (and a real trainer) need to produce a
// Model at all.
package spell

import (
	"math"

	"github.com/stract/stract/internal/term"
)

// backoffDiscount is the constant discount stupid backoff applies when it
// falls from an n-gram to an (n-1)-gram with zero count (spec.md §4.8,
// §9 GLOSSARY "Stupid backoff"). 0.4 is the discount Katz/Brants et al.'s
// original stupid-backoff paper uses and the value carried into most
// from-scratch reimplementations.
const backoffDiscount = 0.4

// ngramTable holds unigram/bigram/trigram counts read in one direction
// over a token stream. Model keeps two: one trained forward, one trained
// over the reversed stream, so LeftToRight and RightToLeft strategies
// (spec.md §4.8) can both be answered as a plain forward lookup against
// the table trained in their own direction.
type ngramTable struct {
	uni   map[string]float64
	bi    map[[2]string]float64
	tri   map[[3]string]float64
	total float64
}

func newNgramTable() *ngramTable {
	return &ngramTable{uni: make(map[string]float64), bi: make(map[[2]string]float64), tri: make(map[[3]string]float64)}
}

func (t *ngramTable) observe(tokens []string) {
	for i, w := range tokens {
		t.uni[w]++
		t.total++
		if i >= 1 {
			t.bi[[2]string{tokens[i-1], w}]++
		}
		if i >= 2 {
			t.tri[[3]string{tokens[i-2], tokens[i-1], w}]++
		}
	}
}

// unigramProb is additively smoothed over the observed vocabulary so an
// unseen candidate never scores exactly zero.
func (t *ngramTable) unigramProb(w string) float64 {
	const eps = 0.5
	return (t.uni[w] + eps) / (t.total + eps*float64(len(t.uni)+1))
}

// bigramProb returns P(w2 | w1): the bigram count ratio if observed,
// otherwise a stupid-backoff discount of the unigram probability.
func (t *ngramTable) bigramProb(w1, w2 string) float64 {
	if c := t.bi[[2]string{w1, w2}]; c > 0 {
		return c / t.uni[w1]
	}
	return backoffDiscount * t.unigramProb(w2)
}

// trigramProb returns P(w3 | w1, w2): the trigram count ratio if
// observed, otherwise a stupid-backoff discount of the bigram
// probability.
func (t *ngramTable) trigramProb(w1, w2, w3 string) float64 {
	if c := t.tri[[3]string{w1, w2, w3}]; c > 0 {
		if denom := t.bi[[2]string{w1, w2}]; denom > 0 {
			return c / denom
		}
	}
	return backoffDiscount * t.bigramProb(w2, w3)
}

// Strategy picks which direction a token's context window is read in,
// depending on the token's position within it (spec.md §4.8 "three
// directional strategies {LeftToRight, RightToLeft, IntoMiddle} depending
// on the token's position in the context window").
type Strategy int

const (
	LeftToRight Strategy = iota
	RightToLeft
	IntoMiddle
)

// Model is the per-language trigram stupid-backoff language model
// (spec.md §4.8), plus the token vocabulary candidate generation
// searches over.
type Model struct {
	forward *ngramTable
	reverse *ngramTable
	vocab   map[string]bool
}

// Train builds a Model from raw corpus text: tokenizes (via
// internal/term.Tokenize, so casing/diacritics match the rest of the
// index), then counts forward and reverse n-grams over the token stream.
// A real deployment trains offline, per spec.md §1's "spell-check
// training" being out of scope; this is the minimal in-process fixture
// that lets query-time correction (this package's actual contract) be
// exercised and tested without a prebuilt model file.
func Train(corpus string) *Model {
	toks := term.Tokenize(corpus)
	words := make([]string, len(toks))
	for i, t := range toks {
		words[i] = t.Text
	}

	reversed := make([]string, len(words))
	for i, w := range words {
		reversed[len(words)-1-i] = w
	}

	fwd := newNgramTable()
	fwd.observe(words)
	rev := newNgramTable()
	rev.observe(reversed)

	vocab := make(map[string]bool, len(fwd.uni))
	for w := range fwd.uni {
		vocab[w] = true
	}

	return &Model{forward: fwd, reverse: rev, vocab: vocab}
}

// LogProb computes log2 P(context[idx] | rest of context) under
// strategy, backing off to shorter n-grams (and ultimately the unigram
// distribution) as context runs out in the chosen direction.
func (m *Model) LogProb(context []string, idx int, strategy Strategy) float64 {
	return math.Log2(m.prob(context, idx, strategy))
}

func (m *Model) prob(context []string, idx int, strategy Strategy) float64 {
	switch strategy {
	case LeftToRight:
		return probLeft(m.forward, context, idx)
	case RightToLeft:
		return probRight(m.reverse, context, idx)
	default: // IntoMiddle
		left := probLeft(m.forward, context, idx)
		right := probRight(m.reverse, context, idx)
		return math.Sqrt(left * right) // geometric mean: combine both directions' evidence symmetrically
	}
}

// probLeft reads context[idx] conditioned on the up-to-two tokens
// preceding it, against a table trained in the forward direction.
func probLeft(t *ngramTable, context []string, idx int) float64 {
	w := context[idx]
	switch {
	case idx >= 2:
		return t.trigramProb(context[idx-2], context[idx-1], w)
	case idx >= 1:
		return t.bigramProb(context[idx-1], w)
	default:
		return t.unigramProb(w)
	}
}

// probRight reads context[idx] conditioned on the up-to-two tokens
// following it, against a table trained in the reverse direction — so
// "preceding in reverse" is exactly "following in forward order".
func probRight(t *ngramTable, context []string, idx int) float64 {
	w := context[idx]
	n := len(context)
	switch {
	case idx+2 < n:
		return t.trigramProb(context[idx+2], context[idx+1], w)
	case idx+1 < n:
		return t.bigramProb(context[idx+1], w)
	default:
		return t.unigramProb(w)
	}
}

// Vocabulary returns every distinct token Train observed, the candidate
// universe edit-distance search draws from.
func (m *Model) Vocabulary() []string {
	out := make([]string, 0, len(m.vocab))
	for w := range m.vocab {
		out = append(out, w)
	}
	return out
}
