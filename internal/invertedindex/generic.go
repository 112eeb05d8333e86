package invertedindex

import "sort"

// GenericQuery is the generic single-shard query executor trait (spec.md
// §4.1 "run via a GenericQuery trait with {Collector, IntermediateOutput,
// merge_results(Vec<Intermediate>) → Output}"). Collect runs against one
// shard's sealed state; Merge combines per-shard intermediates (used by
// the distributed coordinator fanning out to every shard) into the final
// Output.
type GenericQuery[Intermediate, Output any] interface {
	Collect(shard *Shard) Intermediate
	Merge(results []Intermediate) Output
}

// KeyPhrase is one entry of a TopKeyPhrases result.
type KeyPhrase struct {
	Text  string
	Score float64
}

// TopKeyPhrasesQuery implements GenericQuery for the TopKeyPhrases
// operation: it counts how many stored documents list each key phrase in
// their Keywords and collects top_n by that document frequency, subject
// to the language-filter heuristics
// in isLikelyKeyPhrase (spec.md §4.1).
type TopKeyPhrasesQuery struct {
	TopN int
}

// Collect returns this shard's locally top-N key phrases by doc_freq,
// walking each stored document's Keywords.
func (q TopKeyPhrasesQuery) Collect(shard *Shard) []KeyPhrase {
	df := make(map[string]int)
	for _, rec := range shard.docs {
		seenInDoc := make(map[string]bool)
		for _, kw := range rec.Keywords {
			if seenInDoc[kw] {
				continue
			}
			seenInDoc[kw] = true
			df[kw]++
		}
	}

	out := make([]KeyPhrase, 0, len(df))
	for text, count := range df {
		if !isLikelyKeyPhrase(text) {
			continue
		}
		out = append(out, KeyPhrase{Text: text, Score: float64(count)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > q.TopN {
		out = out[:q.TopN]
	}
	return out
}

// Merge combines per-shard top-N lists into one global top-N, re-sorting
// by score (spec.md §4.1 "merge_results(Vec<Intermediate>) → Output").
func (q TopKeyPhrasesQuery) Merge(results [][]KeyPhrase) []KeyPhrase {
	byText := make(map[string]float64)
	for _, shardResult := range results {
		for _, kp := range shardResult {
			byText[kp.Text] += kp.Score
		}
	}
	out := make([]KeyPhrase, 0, len(byText))
	for text, score := range byText {
		out = append(out, KeyPhrase{Text: text, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > q.TopN {
		out = out[:q.TopN]
	}
	return out
}

// isLikelyKeyPhrase applies the language-filter heuristics: reject
// phrases that are more than 25% non-alphabetic, and reject unbalanced
// parentheses (spec.md §4.1 "language-filter heuristics (≤25%
// non-alphabetic chars, balanced parens)").
func isLikelyKeyPhrase(text string) bool {
	if text == "" {
		return false
	}
	nonAlpha := 0
	depth := 0
	for _, r := range text {
		if !isAlpha(r) && r != ' ' {
			nonAlpha++
		}
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			return false
		}
	}
	if depth != 0 {
		return false
	}
	ratio := float64(nonAlpha) / float64(len([]rune(text)))
	return ratio <= 0.25
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
