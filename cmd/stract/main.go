// Package main is the stract CLI entrypoint: one binary, one subcommand
// per deployable role (spec.md §6 "CLI. One-line: stract <subcommand>
// where subcommand selects a role"). The teacher itself never builds a
// CLI; cobra is adopted from the rest of the retrieval pack (e.g.
// theRebelliousNerd-codenerd's cmd/nerd, ehrlich-b-wingthing's cmd/wt),
// which dispatches every multi-subcommand tool this way.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes (spec.md §6: "0 success, 1 fatal error, 2 bad arguments").
const (
	exitOK        = 0
	exitFatal     = 1
	exitBadArgs   = 2
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stract",
	Short: "stract distributed search engine",
	Long:  "stract runs every role of the sharded search engine: crawling, indexing, distributed search, and harmonic-centrality computation, each as a subcommand.",
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults applied otherwise)")

	rootCmd.AddCommand(
		apiCmd,
		searchServerCmd,
		crawlerCmd,
		crawlCoordinatorCmd,
		harmonicCoordinatorCmd,
		harmonicWorkerCmd,
		dhtCmd,
		configureCmd,
		webgraphCmd,
		entityIndexCmd,
		webSpellCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stract:", err)
		if _, ok := err.(*argError); ok {
			os.Exit(exitBadArgs)
		}
		os.Exit(exitFatal)
	}
	os.Exit(exitOK)
}

// argError marks an error as a bad-arguments failure (exit code 2)
// rather than a fatal runtime failure (exit code 1).
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

func badArgs(format string, args ...any) error {
	return &argError{err: fmt.Errorf(format, args...)}
}
