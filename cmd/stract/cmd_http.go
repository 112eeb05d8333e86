package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stract/stract/internal/crawler"
)

// writeJSON is the shared response encoder for every subcommand's tiny
// HTTP surface; none of these endpoints are performance-sensitive enough
// to warrant anything beyond encoding/json.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes the request body into v, writing a 400 response and
// returning false on failure.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("bad request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// coordinatorHTTPClient adapts a crawl coordinator's tiny HTTP surface
// (/jobs, /insert, /complete) to crawler.CoordinatorClient, so a worker
// process can run against a coordinator over the network instead of
// in-process (spec.md §1's hand-rolled RPC wire format stays out of
// scope; this is the plain-HTTP+JSON stand-in for it, in the same spirit
// as internal/message's transport abstraction standing in for the
// out-of-scope byte format).
type coordinatorHTTPClient struct {
	base string
}

func (c *coordinatorHTTPClient) GetJobs(numJobs int) []crawler.Job {
	resp, err := http.Get(fmt.Sprintf("http://%s/jobs?n=%d", c.base, numJobs))
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	var jobs []crawler.Job
	json.NewDecoder(resp.Body).Decode(&jobs)
	return jobs
}

func (c *coordinatorHTTPClient) InsertUrls(urls map[crawler.Domain][]crawler.UrlToInsert) {
	body, err := json.Marshal(urls)
	if err != nil {
		return
	}
	resp, err := http.Post(fmt.Sprintf("http://%s/insert", c.base), "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (c *coordinatorHTTPClient) MarkJobsComplete(crawled []crawler.DomainCrawled) error {
	body, err := json.Marshal(crawled)
	if err != nil {
		return err
	}
	resp, err := http.Post(fmt.Sprintf("http://%s/complete", c.base), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("coordinator returned %s", resp.Status)
	}
	return nil
}
