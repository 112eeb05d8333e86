package webgraph

import (
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NodeID is the stable 64-bit hash of a normalized URL (spec.md §3
// "fast_stable_hash_64(normalized_url)"). Deterministic across processes
// given the same URL (spec.md §8).
type NodeID uint64

// Node is a webgraph vertex: the normalized URL it represents.
type Node struct {
	url string
}

// NewNode normalizes raw and wraps it as a Node.
func NewNode(raw string) Node {
	return Node{url: normalizeURL(raw)}
}

// String returns the node's normalized URL.
func (n Node) String() string { return n.url }

// ID returns the stable hash identifying this node.
func (n Node) ID() NodeID { return NodeID(xxhash.Sum64String(n.url)) }

// IntoHost projects a page node down to its host node, dropping path and
// query. Idempotent: IntoHost().IntoHost() == IntoHost() (spec.md §8).
func (n Node) IntoHost() Node {
	u, err := url.Parse(n.url)
	if err != nil || u.Host == "" {
		return n
	}
	return Node{url: strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)}
}

// normalizeURL lowercases scheme/host, drops a trailing slash-only path,
// and strips fragments, so that equivalent URLs hash to the same NodeID.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}
