// Package webgraph is the append-only edge log plus id<->node mapping
// described in spec.md §4.3: an append-only edge file, a node-id->Node
// map, and per-level (host/page) adjacency indices built from it.
package webgraph

import (
	"fmt"
	"os"
	"sync"

	"github.com/stract/stract/pkg/kv"
)

// Store is an in-memory-indexed, disk-backed webgraph. The edge log is
// append-only on disk (os.File opened O_APPEND); the adjacency indices and
// id2node map are rebuilt into memory on Open and kept current as edges
// are appended, which is the logical equivalent of spec.md's
// memory-mapped random access without requiring an actual mmap syscall
// wrapper (none of the retrieval pack's examples pull in an mmap library;
// justified in DESIGN.md).
type Store struct {
	mu       sync.RWMutex
	path     string
	logFile  *os.File
	id2node  kv.KV[NodeID, Node]
	outPage  map[NodeID][]Edge
	inPage   map[NodeID][]Edge
	outHost  map[NodeID][]Edge
	inHost   map[NodeID][]Edge
}

// Open creates or appends to the edge log at dir/edges.log, replaying it
// into memory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := dir + "/edges.log"
	s := &Store{
		path:    path,
		id2node: make(kv.KV[NodeID, Node]),
		outPage: make(map[NodeID][]Edge),
		inPage:  make(map[NodeID][]Edge),
		outHost: make(map[NodeID][]Edge),
		inHost:  make(map[NodeID][]Edge),
	}
	if err := s.replay(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	s.logFile = f
	return s, nil
}

func (s *Store) replay() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	for {
		var rec edgeRecord
		if err := readEdgeRecord(f, &rec); err != nil {
			if err.Error() == "EOF" {
				return nil
			}
			return err
		}
		s.index(rec.toEdge(), rec.fromNode, rec.toNode)
	}
}

func (s *Store) index(e Edge, fromNode, toNode Node) {
	s.id2node[e.From] = fromNode
	s.id2node[e.To] = toNode
	s.id2node[e.FromHost] = fromNode.IntoHost()
	s.id2node[e.ToHost] = toNode.IntoHost()
	s.outPage[e.From] = append(s.outPage[e.From], e)
	s.inPage[e.To] = append(s.inPage[e.To], e)
	s.outHost[e.FromHost] = append(s.outHost[e.FromHost], e)
	s.inHost[e.ToHost] = append(s.inHost[e.ToHost], e)
}

// InsertEdge appends e to the log, taking fromNode/toNode to populate the
// id2node mapping (the log only stores ids; nodes are supplied by the
// writer because it already resolved the URL to reach this edge).
func (s *Store) InsertEdge(e Edge, fromNode, toNode Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := edgeRecord{
		Edge:     e,
		fromNode: fromNode,
		toNode:   toNode,
	}
	if err := writeEdgeRecord(s.logFile, rec); err != nil {
		return fmt.Errorf("append edge: %w", err)
	}
	s.index(e, fromNode, toNode)
	return nil
}

// Node resolves an id back to its URL via the id2node mapping.
func (s *Store) Node(id NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.id2node[id]
	return n, ok
}

// Out returns up to limit outgoing edges from node at the given level.
func (s *Store) Out(node NodeID, level Level, limit EdgeLimit) []Edge {
	return s.edgesFrom(s.adjacency(level, true), node, limit)
}

// In returns up to limit incoming edges to node at the given level.
func (s *Store) In(node NodeID, level Level, limit EdgeLimit) []Edge {
	return s.edgesFrom(s.adjacency(level, false), node, limit)
}

func (s *Store) adjacency(level Level, out bool) map[NodeID][]Edge {
	switch {
	case level == LevelPage && out:
		return s.outPage
	case level == LevelPage && !out:
		return s.inPage
	case level == LevelHost && out:
		return s.outHost
	default:
		return s.inHost
	}
}

func (s *Store) edgesFrom(adj map[NodeID][]Edge, node NodeID, limit EdgeLimit) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := adj[node]
	out := make([]Edge, 0, len(all))
	for _, e := range all {
		if !limit.allows(len(out)) {
			break
		}
		out = append(out, e)
	}
	return out
}

// NumNodes returns the number of distinct node ids known to the store.
func (s *Store) NumNodes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.id2node))
}

// AllNodeIDs returns every node id known to the store, in unspecified
// order. Used by centrality's setup phase to seed one DHT entry per node.
func (s *Store) AllNodeIDs() []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NodeID, 0, len(s.id2node))
	for id := range s.id2node {
		out = append(out, id)
	}
	return out
}

// Close flushes and closes the underlying log file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logFile.Close()
}
