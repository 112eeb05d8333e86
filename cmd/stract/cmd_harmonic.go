package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stract/stract/internal/centrality"
	"github.com/stract/stract/internal/config"
	"github.com/stract/stract/internal/webgraph"
)

var webgraphDir string

var harmonicCoordinatorCmd = &cobra.Command{
	Use:   "harmonic-coordinator",
	Short: "drive the AMPC round loop computing harmonic centrality over a webgraph",
	RunE:  runHarmonicCoordinator,
}

var harmonicWorkerCmd = &cobra.Command{
	Use:   "harmonic-worker",
	Short: "serve as a single-process AMPC worker over a local webgraph store (wired in-process by harmonic-coordinator)",
	RunE:  runHarmonicWorker,
}

func init() {
	harmonicCoordinatorCmd.Flags().StringVar(&webgraphDir, "webgraph-dir", "", "directory holding the webgraph edge log (overrides config)")
	harmonicWorkerCmd.Flags().StringVar(&webgraphDir, "webgraph-dir", "", "directory holding the webgraph edge log (overrides config)")
}

// runHarmonicCoordinator opens the webgraph store and runs the full AMPC
// harmonic-centrality computation (spec.md §4.4, §4.5) against a single
// local worker. A multi-worker deployment replaces the single
// ampc.NewLocalWorkerClient with real WorkerClient implementations
// dispatched over internal/message's transport, which this package
// already wires for gossip fan-out.
func runHarmonicCoordinator(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dir := cfg.Harmonic.WebgraphDir
	if webgraphDir != "" {
		dir = webgraphDir
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := webgraph.Open(dir)
	if err != nil {
		return fmt.Errorf("open webgraph: %w", err)
	}
	defer store.Close()

	results, err := centrality.RunHarmonic(context.Background(), store, cfg.Harmonic.DhtShards, cfg.Harmonic.MaxRounds)
	if err != nil {
		return err
	}

	log.Info("harmonic centrality computed", slog.Int("nodes", len(results)))
	return json.NewEncoder(os.Stdout).Encode(results)
}

// runHarmonicWorker exists as its own subcommand per spec.md §6's role
// list, but this deployment's workers run in-process inside the
// coordinator (internal/ampc.LocalWorkerClient); a standalone worker
// process would need the out-of-scope RPC wire format to be dispatched
// to remotely, so this role currently just reports readiness.
func runHarmonicWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	dir := cfg.Harmonic.WebgraphDir
	if webgraphDir != "" {
		dir = webgraphDir
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := webgraph.Open(dir)
	if err != nil {
		return fmt.Errorf("open webgraph: %w", err)
	}
	defer store.Close()

	log.Info("harmonic worker ready", slog.Uint64("nodes", store.NumNodes()))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
