package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stract/stract/internal/webgraph"
	pkgbufio "github.com/stract/stract/pkg/bufio"
)

var (
	webgraphIngestDir string
	edgesFile         string
)

var webgraphCmd = &cobra.Command{
	Use:   "webgraph",
	Short: "ingest a newline-delimited JSON edge file into the webgraph store",
	RunE:  runWebgraph,
}

func init() {
	webgraphCmd.Flags().StringVar(&webgraphIngestDir, "webgraph-dir", "./data/webgraph", "directory to hold the webgraph edge log")
	webgraphCmd.Flags().StringVar(&edgesFile, "edges", "", "path to a newline-delimited JSON file of {from,to} URL pairs")
}

type edgeLine struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// runWebgraph replays edgesFile into the append-only webgraph edge log
// (spec.md §4.3), the out-of-scope HTML link-extraction pipeline's
// eventual output format stood in by a flat JSONL fixture (spec.md §1).
func runWebgraph(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := webgraph.Open(webgraphIngestDir)
	if err != nil {
		return badArgsOrFatal(err)
	}
	defer store.Close()

	if edgesFile == "" {
		log.Info("webgraph store opened", slog.Uint64("nodes", store.NumNodes()))
		return nil
	}

	f, err := os.Open(edgesFile)
	if err != nil {
		return badArgs("open edges file: %v", err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Split(pkgbufio.ScanLinesAllFormats)
	for sc.Scan() {
		var line edgeLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			continue
		}
		from := webgraph.NewNode(line.From)
		to := webgraph.NewNode(line.To)
		e := webgraph.Edge{From: from.ID(), To: to.ID(), FromHost: from.IntoHost().ID(), ToHost: to.IntoHost().ID()}
		if err := store.InsertEdge(e, from, to); err != nil {
			return fmt.Errorf("insert edge: %w", err)
		}
		n++
	}
	log.Info("webgraph ingest complete", slog.Int("edges", n), slog.Uint64("nodes", store.NumNodes()))
	return nil
}

// badArgsOrFatal treats a missing/unreadable webgraph directory as a bad
// argument, everything else as fatal.
func badArgsOrFatal(err error) error {
	if os.IsNotExist(err) || os.IsPermission(err) {
		return badArgs("%v", err)
	}
	return err
}
