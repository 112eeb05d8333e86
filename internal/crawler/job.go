package crawler

import "time"

// UrlToInsert is one frontier entry: a discovered (or planner-scheduled)
// URL with its crawl weight (spec.md §3 "Entity: URL-Frontier Entry").
type UrlToInsert struct {
	Url    string
	Weight float64
}

// Job is exactly one domain's worth of work, handed to a single worker
// at a time (spec.md §3 "Entity: Site/Domain ... A crawl Job covers
// exactly one domain at a time"; spec.md §4.7 planner output shape
// "Job{domain, urls: VecDeque<(url, weight)>, wandering_urls}").
//
// Urls holds the schedule_budget portion: URLs the planner chose ahead
// of time. WanderBudget holds the remaining wander_budget: how much
// additional crawl weight the worker may spend following links it
// discovers live, beyond Urls.
type Job struct {
	Domain       Domain
	Urls         []UrlToInsert
	WanderBudget float64
}

// FetchStatus tags the per-URL outcome a worker reports back (spec.md
// §4.7 "Worker ... failed URLs remain in the response with a failure
// status"; spec.md §7 crawl error taxonomy).
type FetchStatus int

const (
	FetchOK FetchStatus = iota
	FetchInvalidContentType
	FetchFailed
	FetchContentTooLarge
	FetchInvalidRedirect
	FetchInvalidPoliteness
)

// FetchedURL is one URL's outcome within a JobResponse.
type FetchedURL struct {
	Url    string
	Status FetchStatus
}

// JobResponse is what a worker reports after finishing a Job: the URLs it
// attempted plus every link it discovered along the way (spec.md §4.7
// "Worker ... appends discovered URLs ... into the response").
type JobResponse struct {
	Domain     Domain
	Fetched    []FetchedURL
	Discovered []string
	BudgetUsed float64
}

// DomainCrawled reports budget consumption for MarkJobsComplete (spec.md
// §6 "MarkJobsComplete{domains with budget_used}").
type DomainCrawled struct {
	Domain     Domain
	BudgetUsed float64
}

// inFlight tracks a domain's currently-assigned job for the politeness
// invariant (spec.md §4.7 "at most one outstanding job per domain").
type inFlight struct {
	job       Job
	assignedAt time.Time
}
