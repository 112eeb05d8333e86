package crawler

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// domainQueue is one domain's frontier: pending URL-weight entries plus
// the lifetime-budget tracking invariant from spec.md §3 ("the sum of
// weights consumed for a domain over its lifetime is bounded by the
// domain's crawl budget").
type domainQueue struct {
	pending      []UrlToInsert
	wanderBudget float64
	budgetUsed   float64
	inFlight     *inFlight
}

// Coordinator owns a hash-partitioned shard of domains (spec.md §4.7
// "Coordinator (online): owns a shard of domains (hash partitioned)").
// It answers GetJobs/InsertUrls/MarkJobsComplete and enforces the
// politeness invariant: at most one outstanding job per domain at a
// time.
type Coordinator struct {
	mu             sync.Mutex
	domains        map[Domain]*domainQueue
	order          []Domain // round-robin cursor order for GetJobs
	next           int
	jobTimeout     time.Duration
}

// NewCoordinator creates an empty Coordinator. jobTimeout bounds how long
// a job may stay marked in-flight before it is eligible for
// reassignment (spec.md §4.7 "marked in-flight until ... MarkJobsComplete
// arrives or a timeout elapses").
func NewCoordinator(jobTimeout time.Duration) *Coordinator {
	return &Coordinator{domains: make(map[Domain]*domainQueue), jobTimeout: jobTimeout}
}

// Seed loads planner-produced jobs into the coordinator's frontier,
// keyed by domain (used both by the `configure`/offline path and by
// tests that bypass the file-queue round trip).
func (c *Coordinator) Seed(jobs []Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, j := range jobs {
		dq := c.getOrCreate(j.Domain)
		dq.pending = append(dq.pending, j.Urls...)
		dq.wanderBudget += j.WanderBudget
	}
}

func (c *Coordinator) getOrCreate(d Domain) *domainQueue {
	dq, ok := c.domains[d]
	if !ok {
		dq = &domainQueue{}
		c.domains[d] = dq
		c.order = append(c.order, d)
	}
	return dq
}

// GetJobs returns up to numJobs Jobs, one per eligible domain, skipping
// any domain with an outstanding (non-expired) in-flight job (spec.md §6
// "GetJobs{num_jobs}"; spec.md §4.7 politeness invariant).
func (c *Coordinator) GetJobs(numJobs int) []Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Job
	now := time.Now()
	n := len(c.order)
	for i := 0; i < n && len(out) < numJobs; i++ {
		idx := (c.next + i) % n
		d := c.order[idx]
		dq := c.domains[d]
		if dq.inFlight != nil {
			if c.jobTimeout > 0 && now.Sub(dq.inFlight.assignedAt) < c.jobTimeout {
				continue
			}
			// timed out: treat as if never assigned and reissue.
		}
		if len(dq.pending) == 0 && dq.wanderBudget <= 0 {
			continue
		}
		job := Job{Domain: d, Urls: dq.pending, WanderBudget: dq.wanderBudget}
		dq.inFlight = &inFlight{job: job, assignedAt: now}
		out = append(out, job)
	}
	if n > 0 {
		c.next = (c.next + 1) % n
	}
	return out
}

// InsertUrls merges newly discovered URLs into each domain's frontier
// (spec.md §6 "InsertUrls{urls: Map<Domain, [UrlToInsert]>}").
func (c *Coordinator) InsertUrls(urls map[Domain][]UrlToInsert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for d, entries := range urls {
		dq := c.getOrCreate(d)
		dq.pending = append(dq.pending, entries...)
	}
}

// MarkJobsComplete clears the in-flight marker for each reported domain
// and records budget consumption, freeing the domain for its next
// GetJobs assignment (spec.md §6 "MarkJobsComplete{domains with
// budget_used}").
func (c *Coordinator) MarkJobsComplete(crawled []DomainCrawled) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, dc := range crawled {
		dq, ok := c.domains[dc.Domain]
		if !ok {
			return fmt.Errorf("crawler: mark complete for unknown domain %q", dc.Domain)
		}
		if dq.inFlight != nil {
			dq.pending = dq.pending[:0]
			dq.wanderBudget -= dc.BudgetUsed
			if dq.wanderBudget < 0 {
				dq.wanderBudget = 0
			}
		}
		dq.budgetUsed += dc.BudgetUsed
		dq.inFlight = nil
	}
	return nil
}

// Domains returns the coordinator's current domain set, sorted, for
// diagnostics and tests.
func (c *Coordinator) Domains() []Domain {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Domain, 0, len(c.domains))
	for d := range c.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
