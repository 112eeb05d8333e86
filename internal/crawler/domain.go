// Package crawler implements the domain-partitioned URL frontier, the
// file-backed job queue, the offline planner, the online coordinator, the
// client-side router, and the worker fetch loop described in spec.md
// §4.7: crawl coordination.
package crawler

import (
	"crypto/md5"
	"math/big"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MAX_URL_LEN_BYTES is the router's per-URL length cap (spec.md §4.7).
const MaxURLLenBytes = 8192

// MaxURLsForDomainPerInsert caps how many discovered URLs the router
// keeps per domain on a single InsertUrls call (spec.md §4.7).
const MaxURLsForDomainPerInsert = 256

// MaxOutgoingURLsPerPage caps how many discovered links a worker reports
// for a single fetched page (spec.md §4.7).
const MaxOutgoingURLsPerPage = 200

// Domain is the ICANN eTLD+1 of a URL (spec.md §3 "Entity: Domain /
// Site"). A crawl Job covers exactly one Domain at a time.
type Domain string

// Site is the full hostname of a URL, as opposed to its eTLD+1 Domain.
type Site string

// DomainOf returns the ICANN eTLD+1 of rawURL, grounded on
// golang.org/x/net/publicsuffix (the teacher's webgraph-adjacent
// dependency surface already pulls in golang.org/x/net; publicsuffix is
// its public-suffix-list implementation, the standard idiomatic answer
// for eTLD+1 extraction rather than a hand-rolled suffix table).
func DomainOf(rawURL string) (Domain, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		host = strings.ToLower(rawURL)
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Domain(host), nil
	}
	return Domain(etld1), nil
}

// SiteOf returns the full hostname of rawURL.
func SiteOf(rawURL string) (Site, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return Site(strings.ToLower(u.Hostname())), nil
}

// CoordinatorIndex implements the router's domain-partitioning rule
// (spec.md §4.7 "partitioning domains by md5(domain) mod n_coordinators",
// spec.md §8 scenario 6): deterministic, stable across runs and
// processes because md5 and big.Int arithmetic are both.
func CoordinatorIndex(domain Domain, numCoordinators int) int {
	if numCoordinators <= 0 {
		return 0
	}
	sum := md5.Sum([]byte(domain))
	n := new(big.Int).SetBytes(sum[:])
	mod := new(big.Int).Mod(n, big.NewInt(int64(numCoordinators)))
	return int(mod.Int64())
}
