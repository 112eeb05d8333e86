package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stract/stract/internal/config"
	"github.com/stract/stract/internal/invertedindex"
	"github.com/stract/stract/internal/search"
)

var (
	corpusPath string
	listenAddr string
)

var searchServerCmd = &cobra.Command{
	Use:   "search-server",
	Short: "serve distributed search over one local shard",
	RunE:  runSearchServer,
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "serve the public search API (thin wrapper over search-server in this deployment)",
	RunE:  runSearchServer,
}

func init() {
	searchServerCmd.Flags().StringVar(&corpusPath, "corpus", "", "path to a newline-delimited JSON corpus file (url/title/body per line)")
	searchServerCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	apiCmd.Flags().StringVar(&corpusPath, "corpus", "", "path to a newline-delimited JSON corpus file (url/title/body per line)")
	apiCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
}

// corpusLine is the JSONL record shape search-server loads a demo/test
// shard from. Real ingestion (HTML/WARC parsing, the crawler's
// discovered-document pipeline) is out of scope (spec.md §1); this is
// the minimal fixture format that exercises the search path end to end.
type corpusLine struct {
	Url   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Site  string `json:"site"`
}

func loadShard(path string) (*invertedindex.Shard, error) {
	shard := invertedindex.NewShard(0, 1024)
	if path == "" {
		shard.Seal()
		return shard, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var line corpusLine
		if err := dec.Decode(&line); err != nil {
			break
		}
		doc := invertedindex.Document{Url: line.Url, Title: line.Title}
		shard.Insert(doc, line.Body, line.Body, line.Site, 0, 0, 0, 0, 0)
	}
	shard.Seal()
	return shard, nil
}

func runSearchServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	shard, err := loadShard(corpusPath)
	if err != nil {
		return err
	}

	var bangs *search.BangRegistry
	if cfg.Search.BangsFile != "" {
		bangs, err = loadBangs(cfg.Search.BangsFile)
		if err != nil {
			return err
		}
	} else {
		bangs = search.NewBangRegistry(nil)
	}

	coord := search.NewCoordinator([]search.ShardClient{search.NewLocalShardClient(shard)}, bangs, cfg.Search.RoundDeadline, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := search.Query{Text: r.URL.Query().Get("q"), NumResults: 10}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		res, err := coord.Search(ctx, q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	})

	log.Info("search server listening", slog.String("addr", listenAddr))
	return http.ListenAndServe(listenAddr, mux)
}

func loadBangs(path string) (*search.BangRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bangs file: %w", err)
	}
	var bangs []search.Bang
	if err := json.Unmarshal(data, &bangs); err != nil {
		return nil, fmt.Errorf("parse bangs file: %w", err)
	}
	return search.NewBangRegistry(bangs), nil
}
