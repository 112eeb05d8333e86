package crawler

import (
	"sort"
	"strconv"
)

// HostInfo is the planner's view of one host: its centrality score (used
// to derive its crawl budget) and the URLs already known to belong to
// it, e.g. from a prior crawl or the webgraph (spec.md §4.7 "Planner").
type HostInfo struct {
	Host       Site
	Centrality float64
	Urls       []string
}

// PlannerConfig holds the tunables spec.md §4.7 names for the offline
// planner: the total crawl budget a host's centrality is multiplied
// against, and the fraction of that budget reserved for wandering
// (URLs discovered live) rather than scheduled ahead.
type PlannerConfig struct {
	CrawlBudget    float64
	WanderFraction float64
	NumJobQueues   int
}

// Plan groups hosts by domain, computes each host's budget = crawlBudget
// * host.Centrality, splits it into schedule_budget (chosen-ahead URLs)
// and wander_budget, and emits one Job per domain — round-robin assigned
// across cfg.NumJobQueues file queues (spec.md §4.7 "Emits Job{...} into
// num_job_queues file queues. Queue assignment is round-robin.").
func Plan(hosts []HostInfo, cfg PlannerConfig) []Job {
	byDomain := make(map[Domain][]HostInfo)
	order := make([]Domain, 0)
	for _, h := range hosts {
		d, err := DomainOf(string(h.Host))
		if err != nil {
			continue
		}
		if _, seen := byDomain[d]; !seen {
			order = append(order, d)
		}
		byDomain[d] = append(byDomain[d], h)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	jobs := make([]Job, 0, len(order))
	for _, d := range order {
		jobs = append(jobs, planDomain(d, byDomain[d], cfg))
	}
	return jobs
}

func planDomain(d Domain, hosts []HostInfo, cfg PlannerConfig) Job {
	var scheduled []UrlToInsert
	var wanderBudget float64

	for _, h := range hosts {
		budget := cfg.CrawlBudget * h.Centrality
		scheduleBudget := (1 - cfg.WanderFraction) * budget
		wanderBudget += cfg.WanderFraction * budget

		n := int(scheduleBudget)
		if n > len(h.Urls) {
			n = len(h.Urls)
		}
		weight := 1.0
		if n > 0 {
			weight = scheduleBudget / float64(n)
		}
		for _, u := range h.Urls[:n] {
			scheduled = append(scheduled, UrlToInsert{Url: u, Weight: weight})
		}
	}

	return Job{Domain: d, Urls: scheduled, WanderBudget: wanderBudget}
}

// AssignQueues distributes jobs round-robin across numQueues file
// queues, appending each job to the queue at dir/queue-<i>.
func AssignQueues(dir string, jobs []Job, numQueues int) error {
	if numQueues <= 0 {
		numQueues = 1
	}
	queues := make([]*FileQueue[Job], numQueues)
	defer func() {
		for _, q := range queues {
			if q != nil {
				q.Close()
			}
		}
	}()

	for i, job := range jobs {
		qi := i % numQueues
		if queues[qi] == nil {
			q, err := OpenFileQueue[Job](queuePath(dir, qi))
			if err != nil {
				return err
			}
			queues[qi] = q
		}
		if err := queues[qi].Push(job); err != nil {
			return err
		}
	}
	return nil
}

func queuePath(dir string, i int) string {
	return dir + "/queue-" + strconv.Itoa(i)
}
