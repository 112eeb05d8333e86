package search

import (
	"context"

	"github.com/stract/stract/internal/invertedindex"
)

// LocalShardClient adapts an in-process *invertedindex.Shard to the
// ShardClient interface, for single-process deployments and tests that
// skip the out-of-scope RPC transport (spec.md §1).
type LocalShardClient struct {
	id    ShardID
	shard *invertedindex.Shard
}

// NewLocalShardClient wraps shard for direct, in-process dispatch.
func NewLocalShardClient(shard *invertedindex.Shard) *LocalShardClient {
	return &LocalShardClient{id: ShardID(shard.ID()), shard: shard}
}

func (c *LocalShardClient) ID() ShardID { return c.id }

func (c *LocalShardClient) SearchInitial(ctx context.Context, q Query) (invertedindex.InitialResult, error) {
	return c.shard.SearchInitial(q.Text, q.NumResults, q.Offset, q.DeRankSimilar, q.Optic)
}

func (c *LocalShardClient) RetrieveWebsites(ctx context.Context, pointers []invertedindex.Pointer, query string) ([]invertedindex.Document, error) {
	return c.shard.RetrieveWebsites(pointers, query), nil
}
