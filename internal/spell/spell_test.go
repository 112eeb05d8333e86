package spell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// spec.md §8 scenario 3: dictionary built from "abraham lincoln was the
// 16th president of the united states. linculn linculn"; correct the
// misspelled token "lincln" with and without the preceding context
// "abraham".
func TestCorrectUsesContextWhenAvailable(t *testing.T) {
	m := Train("abraham lincoln was the 16th president of the united states. linculn linculn")

	require.Equal(t, "lincoln", m.Correct([]string{"abraham"}, "lincln", nil))
	require.Equal(t, "linculn", m.Correct(nil, "lincln", nil))
}

func TestCorrectLeavesCorrectTokenAlone(t *testing.T) {
	m := Train("abraham lincoln was the 16th president of the united states. linculn linculn")

	require.Equal(t, "lincoln", m.Correct([]string{"abraham"}, "lincoln", nil))
}

func TestMaxEditDistanceBudget(t *testing.T) {
	require.Equal(t, 1, MaxEditDistance(3))
	require.Equal(t, 1, MaxEditDistance(4))
	require.Equal(t, 2, MaxEditDistance(5))
	require.Equal(t, 2, MaxEditDistance(12))
	require.Equal(t, 3, MaxEditDistance(13))
}

func TestCandidatesWithinBudget(t *testing.T) {
	m := Train("abraham lincoln was the 16th president of the united states. linculn linculn")

	cands := m.Candidates("lincln")
	require.Contains(t, cands, "lincoln")
	require.Contains(t, cands, "linculn")
}
