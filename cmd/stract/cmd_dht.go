package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/stract/stract/internal/dht"
)

var dhtListenAddr string

var dhtCmd = &cobra.Command{
	Use:   "dht",
	Short: "serve a standalone sharded DHT table over HTTP (spec.md §3 'DHT Table')",
	RunE:  runDHT,
}

func init() {
	dhtCmd.Flags().StringVar(&dhtListenAddr, "listen", ":8090", "HTTP listen address")
}

// runDHT hosts a single dht.Table[string, dht.KahanSum] of Kahan-summed
// values, reachable over a tiny HTTP surface, standing in for the AMPC
// coordinator's out-of-scope wire-format DHT RPC (spec.md §1).
func runDHT(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	table := dht.NewTable[string, dht.KahanSum](0, dht.HashString)

	mux := http.NewServeMux()
	mux.HandleFunc("/upsert", func(w http.ResponseWriter, r *http.Request) {
		var pairs map[string]float64
		if !readJSON(w, r, &pairs) {
			return
		}
		converted := make(map[string]dht.KahanSum, len(pairs))
		for k, v := range pairs {
			converted[k] = dht.KahanSum{}.Add(v)
		}
		dht.BatchUpsert(table, dht.KahanSumCombiner{}, converted)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		k := r.URL.Query().Get("key")
		v, ok := table.Get(k)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]float64{"value": v.Sum})
	})
	mux.HandleFunc("/len", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"len": table.Len()})
	})

	log.Info("dht listening", slog.String("addr", dhtListenAddr))
	return http.ListenAndServe(dhtListenAddr, mux)
}
