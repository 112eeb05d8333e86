package spell

import "math"

// lmWeight scales the language-model term against the error-model term
// in the correction score (spec.md §4.8 "w_lm . log p(candidate|context)
// + log p(misspell|token->candidate)").
const lmWeight = 1.0

// correctionThreshold gates a correction: a candidate only replaces the
// original token once its score beats the token's own score by more
// than this margin (spec.md §4.8 "score - token_score >
// correction_threshold").
const correctionThreshold = 0.0

// errorLogProb approximates log p(misspell|token->candidate) as a
// constant penalty per edit, so candidates further from the original
// token are discounted relative to closer ones at equal language-model
// probability.
func errorLogProb(token, candidate string) float64 {
	budget := MaxEditDistance(len([]rune(token)))
	dist := levenshtein(token, candidate, budget)
	return -float64(dist)
}

// strategyFor picks the directional strategy for correcting the token
// at idx within context, based on its position (spec.md §4.8 "three
// directional strategies ... depending on the token's position in the
// context window"): a token with nothing before it reads right-to-left,
// a token with nothing after it reads left-to-right, and one with
// context on both sides reads into the middle.
func strategyFor(context []string, idx int) Strategy {
	switch {
	case idx == 0 && idx == len(context)-1:
		return LeftToRight
	case idx == 0:
		return RightToLeft
	case idx == len(context)-1:
		return LeftToRight
	default:
		return IntoMiddle
	}
}

// score computes w_lm . log p(candidate|context) + log
// p(misspell|token->candidate) for candidate substituted at idx within
// context, against the original token.
func (m *Model) score(context []string, idx int, token, candidate string) float64 {
	withCandidate := append(append([]string{}, context[:idx]...), append([]string{candidate}, context[idx+1:]...)...)
	lm := m.LogProb(withCandidate, idx, strategyFor(withCandidate, idx))
	if math.IsInf(lm, -1) {
		lm = -1e9
	}
	return lmWeight*lm + errorLogProb(token, candidate)
}

// Correct corrects token given its surrounding context (spec.md §4.8,
// §8 scenario 3: Correct(before, token, after)). It generates candidates
// within the edit-distance budget, scores each against the token's own
// score under the token's position strategy, and returns the
// highest-scoring candidate if it clears correctionThreshold over the
// token itself; otherwise it returns token unchanged.
func (m *Model) Correct(before []string, token string, after []string) string {
	context := make([]string, 0, len(before)+1+len(after))
	context = append(context, before...)
	idx := len(context)
	context = append(context, token)
	context = append(context, after...)

	tokenScore := m.score(context, idx, token, token)

	best := token
	bestScore := tokenScore
	for _, cand := range m.Candidates(token) {
		if cand == token {
			continue
		}
		s := m.score(context, idx, token, cand)
		if s > bestScore {
			bestScore = s
			best = cand
		}
	}

	if bestScore-tokenScore > correctionThreshold {
		return best
	}
	return token
}
