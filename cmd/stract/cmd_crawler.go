package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stract/stract/internal/config"
	"github.com/stract/stract/internal/crawler"
)

var (
	numQueues      int
	coordinatorAddr string
	workerCoordinatorAddr string
)

var crawlCoordinatorCmd = &cobra.Command{
	Use:   "crawl-coordinator",
	Short: "run a domain-partitioned crawl coordinator",
	RunE:  runCrawlCoordinator,
}

var crawlerCmd = &cobra.Command{
	Use:   "crawler",
	Short: "run a crawl worker against a job queue",
	RunE:  runCrawlWorker,
}

func init() {
	crawlCoordinatorCmd.Flags().IntVar(&numQueues, "num-queues", 1, "number of file-backed job queues; the coordinator itself reads only the queue at queue_dir")
	crawlCoordinatorCmd.Flags().StringVar(&coordinatorAddr, "listen", ":8081", "HTTP listen address")
	crawlerCmd.Flags().StringVar(&workerCoordinatorAddr, "coordinator", "127.0.0.1:8081", "address of the crawl coordinator to poll")
}

// runCrawlCoordinator hosts a single crawl.Coordinator in-process,
// seeding it by draining the one file queue at cfg.Crawler.QueueDir.
// URLs posted to /insert are added to the coordinator's in-memory
// frontier only; they are not written back to any queue (spec.md §4.3, §5
// "domain-level partitioning across coordinators via md5(domain) mod
// num_coordinators").
func runCrawlCoordinator(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	coord := crawler.NewCoordinator(cfg.Crawler.JobTimeout)

	queue, err := crawler.OpenFileQueue[crawler.Job](cfg.Crawler.QueueDir)
	if err != nil {
		return err
	}
	defer queue.Close()

	seeded, err := queue.PopAll()
	if err != nil {
		return err
	}
	coord.Seed(seeded)
	log.Info("crawl coordinator seeded", slog.Int("domains", len(coord.Domains())))

	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		jobs := coord.GetJobs(16)
		writeJSON(w, jobs)
	})
	mux.HandleFunc("/insert", func(w http.ResponseWriter, r *http.Request) {
		var urls map[crawler.Domain][]crawler.UrlToInsert
		if !readJSON(w, r, &urls) {
			return
		}
		coord.InsertUrls(urls)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/complete", func(w http.ResponseWriter, r *http.Request) {
		var crawled []crawler.DomainCrawled
		if !readJSON(w, r, &crawled) {
			return
		}
		if err := coord.MarkJobsComplete(crawled); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	log.Info("crawl coordinator listening", slog.String("addr", coordinatorAddr))
	return http.ListenAndServe(coordinatorAddr, mux)
}

// runCrawlWorker runs a single long-lived crawl worker: poll jobs from
// the coordinator, fetch politely and within robots.txt, report results,
// repeat until interrupted (spec.md §4.3 "worker politeness, robots.txt,
// redirect/size/retry limits").
func runCrawlWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	client := &coordinatorHTTPClient{base: workerCoordinatorAddr}
	router := crawler.NewRouter([]crawler.CoordinatorClient{client})

	worker := crawler.NewWorker(crawler.WorkerConfig{
		PolitenessDelay: cfg.Crawler.PolitenessDelay,
		MaxRedirects:    cfg.Crawler.MaxRedirects,
		MaxContentBytes: cfg.Crawler.MaxContentBytes.Int64(),
		MaxRetries:      cfg.Crawler.MaxRetries,
		UserAgent:       cfg.Crawler.UserAgent,
	}, http.DefaultClient, nil, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		jobs := router.GetJobs(4)
		if len(jobs) == 0 {
			time.Sleep(time.Second)
			continue
		}

		var responses []crawler.JobResponse
		var crawled []crawler.DomainCrawled
		for _, job := range jobs {
			resp := worker.Run(ctx, job)
			responses = append(responses, resp)
			crawled = append(crawled, crawler.DomainCrawled{Domain: resp.Domain, BudgetUsed: resp.BudgetUsed})
		}
		if err := router.AddResponses(responses, 1.0); err != nil {
			log.Warn("add responses failed", slog.String("err", err.Error()))
		}
		if err := router.MarkJobsComplete(crawled); err != nil {
			log.Warn("mark complete failed", slog.String("err", err.Error()))
		}
	}
}
