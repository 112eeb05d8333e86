package crawler

import "github.com/stract/stract/pkg/sets"

// CoordinatorClient is the router's view of one backing Coordinator,
// reachable over whatever transport a real deployment wires in (spec.md
// §1 treats the RPC wire format as external); tests and in-process
// deployments can satisfy it directly with *Coordinator.
type CoordinatorClient interface {
	GetJobs(numJobs int) []Job
	InsertUrls(urls map[Domain][]UrlToInsert)
	MarkJobsComplete(crawled []DomainCrawled) error
}

// Router is the client-side facade across multiple coordinators,
// partitioning domains by CoordinatorIndex (spec.md §4.7 "Router").
type Router struct {
	coordinators []CoordinatorClient
}

// NewRouter builds a Router over a fixed, ordered set of coordinator
// clients. Index assignment (CoordinatorIndex) depends on len(clients)
// staying stable for the lifetime of the router.
func NewRouter(coordinators []CoordinatorClient) *Router {
	return &Router{coordinators: coordinators}
}

// GetJobs fans out numJobs across every coordinator and concatenates
// their results. A real deployment would balance this more carefully;
// the spec leaves per-coordinator batching unspecified.
func (r *Router) GetJobs(numJobs int) []Job {
	var out []Job
	for _, c := range r.coordinators {
		out = append(out, c.GetJobs(numJobs)...)
	}
	return out
}

// AddResponses folds a batch of worker JobResponses into InsertUrls calls
// against the owning coordinators, applying the router's discovery-link
// policy (spec.md §4.7 "Router ... add_responses(JobResponses) dedupes
// discovered URLs per-domain, filters URLs longer than
// MAX_URL_LEN_BYTES, truncates to MAX_URLS_FOR_DOMAIN_PER_INSERT, and
// assigns a per-URL weight min(1.0, weight_budget/diff_domains) for
// cross-domain links").
func (r *Router) AddResponses(responses []JobResponse, weightBudget float64) error {
	perCoordinator := make(map[int]map[Domain][]UrlToInsert)

	for _, resp := range responses {
		byDomain, diffDomains, err := r.classifyDiscovered(resp.Discovered)
		if err != nil {
			return err
		}
		for d, urls := range byDomain {
			weight := 1.0
			if diffDomains > 1 {
				w := weightBudget / float64(diffDomains)
				if w < 1.0 {
					weight = w
				}
			}
			idx := CoordinatorIndex(d, len(r.coordinators))
			if perCoordinator[idx] == nil {
				perCoordinator[idx] = make(map[Domain][]UrlToInsert)
			}
			entries := dedupeURLs(urls)
			if len(entries) > MaxURLsForDomainPerInsert {
				entries = entries[:MaxURLsForDomainPerInsert]
			}
			for _, u := range entries {
				perCoordinator[idx][d] = append(perCoordinator[idx][d], UrlToInsert{Url: u, Weight: weight})
			}
		}
	}

	for idx, byDomain := range perCoordinator {
		r.coordinators[idx].InsertUrls(byDomain)
	}
	return nil
}

// classifyDiscovered groups discovered links by their domain, dropping
// any over MAX_URL_LEN_BYTES (spec.md §4.7, §8 "URL length > 8192 bytes
// -> dropped at router insert"), and returns the number of distinct
// domains observed (the "diff_domains" the per-URL weight split is
// computed against).
func (r *Router) classifyDiscovered(urls []string) (map[Domain][]string, int, error) {
	byDomain := make(map[Domain][]string)
	for _, u := range urls {
		if len(u) > MaxURLLenBytes {
			continue
		}
		d, err := DomainOf(u)
		if err != nil {
			continue
		}
		byDomain[d] = append(byDomain[d], u)
	}
	return byDomain, len(byDomain), nil
}

func dedupeURLs(urls []string) []string {
	seen := sets.NewHashSet[string](len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen.Add(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// MarkJobsComplete fans completions out to the owning coordinators.
func (r *Router) MarkJobsComplete(crawled []DomainCrawled) error {
	perCoordinator := make(map[int][]DomainCrawled)
	for _, dc := range crawled {
		idx := CoordinatorIndex(dc.Domain, len(r.coordinators))
		perCoordinator[idx] = append(perCoordinator[idx], dc)
	}
	for idx, batch := range perCoordinator {
		if err := r.coordinators[idx].MarkJobsComplete(batch); err != nil {
			return err
		}
	}
	return nil
}
