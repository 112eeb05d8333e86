package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stract/stract/internal/invertedindex"
)

func newTestShard(t *testing.T, id uint64, docs int) *invertedindex.Shard {
	t.Helper()
	s := invertedindex.NewShard(id, docs)
	for i := 0; i < docs; i++ {
		url := "https://example.com/shard" + string(rune('0'+id)) + "/" + string(rune('a'+i))
		s.Insert(invertedindex.Document{Url: url, Title: "fox page"}, "the quick fox jumps", "the quick fox jumps", "example.com", 1, 1, 0, 0, 1)
	}
	s.Seal()
	return s
}

// spec.md §8 scenario 4: with one bang defined {tag: "ty", url:
// "https://www.youtube.com/results?search_query={{{s}}}"}, query "!ty
// bangs" yields a redirect; query "bangs" yields no bang hit.
func TestBangHandling(t *testing.T) {
	reg := NewBangRegistry([]Bang{{Tag: "ty", Url: "https://www.youtube.com/results?search_query={{{s}}}"}})

	hit, ok := reg.MatchQuery("!ty bangs")
	require.True(t, ok)
	require.Equal(t, "https://www.youtube.com/results?search_query=bangs", hit.RedirectUrl)

	_, ok = reg.MatchQuery("bangs")
	require.False(t, ok)
}

func TestCoordinatorBangShortCircuit(t *testing.T) {
	reg := NewBangRegistry([]Bang{{Tag: "g", Url: "https://www.google.com/search?q={{{s}}}"}})
	coord := NewCoordinator(nil, reg, 0, nil)

	res, err := coord.Search(context.Background(), Query{Text: "!g hello world"})
	require.NoError(t, err)
	require.NotNil(t, res.Bang)
	require.Equal(t, "https://www.google.com/search?q=hello world", res.Bang.RedirectUrl)
}

func TestCoordinatorMergesAcrossShards(t *testing.T) {
	s1 := newTestShard(t, 1, 2)
	s2 := newTestShard(t, 2, 2)
	coord := NewCoordinator([]ShardClient{
		NewLocalShardClient(s1),
		NewLocalShardClient(s2),
	}, nil, 0, nil)

	res, err := coord.Search(context.Background(), Query{Text: "fox", NumResults: 10})
	require.NoError(t, err)
	require.Len(t, res.Documents, 4)
	require.Equal(t, uint64(4), res.NumWebsites.Value)
}

func TestCoordinatorTopKZeroIsEmptyNotError(t *testing.T) {
	s1 := newTestShard(t, 1, 2)
	coord := NewCoordinator([]ShardClient{NewLocalShardClient(s1)}, nil, 0, nil)

	res, err := coord.Search(context.Background(), Query{Text: "fox", NumResults: 0})
	require.NoError(t, err)
	require.Empty(t, res.Documents)
}

func TestSortMergedDeterministicTieBreak(t *testing.T) {
	all := []shardPointer{
		{Pointer: invertedindex.Pointer{Score: 1, UrlHash: 9}, shard: 2},
		{Pointer: invertedindex.Pointer{Score: 1, UrlHash: 1}, shard: 1},
		{Pointer: invertedindex.Pointer{Score: 2, UrlHash: 5}, shard: 3},
	}
	sortMerged(all)
	require.Equal(t, float64(2), all[0].Score)
	require.Equal(t, ShardID(1), all[1].shard)
	require.Equal(t, ShardID(2), all[2].shard)
}
