package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	pkgmime "github.com/stract/stract/pkg/mime"
	"github.com/stract/stract/pkg/stream"
)

// WorkerConfig holds the Worker's politeness and safety limits (spec.md
// §4.7 "Worker").
type WorkerConfig struct {
	PolitenessDelay  time.Duration
	MaxRedirects     int
	MaxContentBytes  int64
	MaxRetries       int
	UserAgent        string
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PolitenessDelay <= 0 {
		c.PolitenessDelay = time.Second
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 5
	}
	if c.MaxContentBytes <= 0 {
		c.MaxContentBytes = 10 << 20
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.UserAgent == "" {
		c.UserAgent = "stractbot/1.0"
	}
	return c
}

// WarcRecord is the minimal shape a worker hands off to the (out-of-scope,
// spec.md §1) WARC writer: the fetched bytes plus the metadata needed to
// frame a WARC response record.
type WarcRecord struct {
	Url        string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// WarcSink receives one WarcRecord per successfully fetched page. A real
// deployment plugs in the out-of-scope WARC writer here (spec.md §1).
type WarcSink interface {
	Write(WarcRecord) error
}

// StreamWarcSink decouples a Worker's fetch loop from a (possibly slow)
// downstream WARC writer by funneling records through a bounded
// in-process stream: Write never blocks on the writer doing its own I/O
// beyond the buffer filling up, matching the politeness delay already
// pacing each fetch against the Worker's own backpressure.
type StreamWarcSink struct {
	s   stream.Stream[WarcRecord]
	ctx context.Context
}

// NewStreamWarcSink creates a StreamWarcSink with the given buffer
// capacity. Call Records to drain it and Close when the worker is done
// producing.
func NewStreamWarcSink(ctx context.Context, capacity int) *StreamWarcSink {
	return &StreamWarcSink{s: stream.NewStream[WarcRecord](capacity), ctx: ctx}
}

// Write implements WarcSink.
func (w *StreamWarcSink) Write(r WarcRecord) error {
	return w.s.Write(w.ctx, r)
}

// Records returns the underlying reader for a downstream WARC writer to
// drain until io.EOF.
func (w *StreamWarcSink) Records() stream.Reader[WarcRecord] { return w.s }

// Close signals that no more records will be written.
func (w *StreamWarcSink) Close() error { return w.s.Close() }

// Fetcher abstracts the HTTP client so tests can substitute a fake
// transport without a real network.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Worker consumes a single Job at a time (spec.md §4.7 "Worker"): it
// respects robots.txt (cached per site), enforces a politeness delay
// between requests to the same host, fetches with a redirect/size limit,
// emits WARC records, and caps discovered links per page.
type Worker struct {
	cfg     WorkerConfig
	client  Fetcher
	sink    WarcSink
	log     *slog.Logger

	mu          sync.Mutex
	robotsCache map[Site]*robotsRules
	lastFetch   map[Site]time.Time
}

// NewWorker builds a Worker against client (typically *http.Client,
// satisfying Fetcher) and sink. An *http.Client without its own
// CheckRedirect is replaced by a copy that stops after cfg.MaxRedirects
// redirects; the redirect response is then reported as
// FetchInvalidRedirect.
func NewWorker(cfg WorkerConfig, client Fetcher, sink WarcSink, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	if hc, ok := client.(*http.Client); ok && hc.CheckRedirect == nil {
		limited := *hc
		limited.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > cfg.MaxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		}
		client = &limited
	}
	return &Worker{
		cfg:         cfg,
		client:      client,
		sink:        sink,
		log:         log,
		robotsCache: make(map[Site]*robotsRules),
		lastFetch:   make(map[Site]time.Time),
	}
}

// Run processes job to completion, fetching each scheduled URL (and, once
// WanderBudget allows, discovered links) and returning a JobResponse
// (spec.md §4.7).
func (w *Worker) Run(ctx context.Context, job Job) JobResponse {
	resp := JobResponse{Domain: job.Domain}
	discovered := make([]string, 0)
	wanderRemaining := job.WanderBudget

	queue := make([]string, len(job.Urls))
	for i, u := range job.Urls {
		queue[i] = u.Url
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		site, err := SiteOf(u)
		if err != nil {
			resp.Fetched = append(resp.Fetched, FetchedURL{Url: u, Status: FetchFailed})
			continue
		}

		if !w.allowedByRobots(ctx, site, u) {
			resp.Fetched = append(resp.Fetched, FetchedURL{Url: u, Status: FetchInvalidPoliteness})
			continue
		}
		w.waitPoliteness(site)

		status, links, err := w.fetchOne(ctx, u)
		if err != nil {
			resp.Fetched = append(resp.Fetched, FetchedURL{Url: u, Status: status})
			continue
		}
		resp.Fetched = append(resp.Fetched, FetchedURL{Url: u, Status: FetchOK})

		if len(links) > MaxOutgoingURLsPerPage {
			links = links[:MaxOutgoingURLsPerPage]
		}
		discovered = append(discovered, links...)

		if wanderRemaining > 0 && len(links) > 0 {
			take := 1
			queue = append(queue, links[:min(take, len(links))]...)
			wanderRemaining -= 1
		}
	}

	resp.Discovered = discovered
	resp.BudgetUsed = job.WanderBudget - wanderRemaining
	return resp
}

// fetchOne performs one GET against u with retry, redirect-limit, and
// content-size-limit enforcement (spec.md §4.7, §7 crawl error
// taxonomy), returning the fetch status and any links it extracted.
func (w *Worker) fetchOne(ctx context.Context, u string) (FetchStatus, []string, error) {
	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		status, links, err := w.doFetch(ctx, u)
		if err == nil {
			return status, links, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return FetchFailed, nil, ctx.Err()
		default:
		}
	}
	w.log.Warn("crawl fetch failed", slog.String("url", u), slog.String("err", lastErr.Error()))
	return FetchFailed, nil, lastErr
}

func (w *Worker) doFetch(ctx context.Context, u string) (FetchStatus, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return FetchFailed, nil, err
	}
	req.Header.Set("User-Agent", w.cfg.UserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return FetchFailed, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return FetchInvalidRedirect, nil, fmt.Errorf("crawler: unexpected redirect status %d for %s", resp.StatusCode, u)
	}
	if resp.StatusCode >= 400 {
		return FetchFailed, nil, fmt.Errorf("crawler: fetch status %d for %s", resp.StatusCode, u)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" {
		parsed, parseErr := pkgmime.Parse(ct)
		if parseErr != nil || !(pkgmime.IsText(parsed) || strings.Contains(parsed.SubType(), "html")) {
			return FetchInvalidContentType, nil, fmt.Errorf("crawler: unsupported content type %q for %s", ct, u)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.cfg.MaxContentBytes+1))
	if err != nil {
		return FetchFailed, nil, err
	}
	if int64(len(body)) > w.cfg.MaxContentBytes {
		return FetchContentTooLarge, nil, fmt.Errorf("crawler: content too large for %s", u)
	}

	if w.sink != nil {
		if err := w.sink.Write(WarcRecord{Url: u, StatusCode: resp.StatusCode, Body: body, FetchedAt: time.Now()}); err != nil {
			w.log.Warn("warc write failed", slog.String("url", u), slog.String("err", err.Error()))
		}
	}

	// Link extraction is the out-of-scope HTML parser's job (spec.md §1);
	// callers that need real link discovery inject it via a WarcSink that
	// also implements linkExtractor, keeping Worker itself parser-agnostic.
	var links []string
	if le, ok := w.sink.(linkExtractor); ok {
		links = le.ExtractLinks(u, body)
	}
	return FetchOK, links, nil
}

// linkExtractor is an optional capability a WarcSink can implement to
// hand the worker discovered outgoing links, without the worker itself
// depending on any particular HTML parser.
type linkExtractor interface {
	ExtractLinks(pageURL string, body []byte) []string
}

func (w *Worker) waitPoliteness(site Site) {
	w.mu.Lock()
	last, ok := w.lastFetch[site]
	w.lastFetch[site] = time.Now()
	w.mu.Unlock()

	if !ok {
		return
	}
	wait := w.cfg.PolitenessDelay - time.Since(last)
	if wait > 0 {
		time.Sleep(wait)
	}
}
