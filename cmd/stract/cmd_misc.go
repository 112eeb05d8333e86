package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stract/stract/internal/spell"
)

var (
	spellCorpusPath string
	spellBefore     []string
	spellAfter      []string
	spellToken      string
)

var webSpellCmd = &cobra.Command{
	Use:   "web-spell",
	Short: "correct one query token against a trained language model (spec.md §4.8)",
	RunE:  runWebSpell,
}

var entityIndexCmd = &cobra.Command{
	Use:   "entity-index",
	Short: "entity/widget subsystem role (out of scope beyond this hook, spec.md §1 Non-goals)",
	RunE:  runEntityIndex,
}

func init() {
	webSpellCmd.Flags().StringVar(&spellCorpusPath, "corpus", "", "path to a plain-text training corpus")
	webSpellCmd.Flags().StringSliceVar(&spellBefore, "before", nil, "tokens preceding the token to correct")
	webSpellCmd.Flags().StringSliceVar(&spellAfter, "after", nil, "tokens following the token to correct")
	webSpellCmd.Flags().StringVar(&spellToken, "token", "", "the token to correct")
	webSpellCmd.MarkFlagRequired("corpus")
	webSpellCmd.MarkFlagRequired("token")
}

// runWebSpell trains a Model from --corpus and prints the corrected form
// of --token given its --before/--after context (spec.md §4.8, §8
// scenario 3).
func runWebSpell(cmd *cobra.Command, args []string) error {
	if spellToken == "" {
		return badArgs("web-spell: --token is required")
	}

	data, err := os.ReadFile(spellCorpusPath)
	if err != nil {
		return badArgs("read corpus: %v", err)
	}

	model := spell.Train(string(data))
	corrected := model.Correct(spellBefore, spellToken, spellAfter)
	fmt.Println(corrected)
	return nil
}

// runEntityIndex reports readiness only: the entity/widget subsystems
// (Wikipedia/ZIM-backed entity cards, calculator, etc.) are out of scope
// beyond this hook per spec.md §1 Non-goals; a real deployment would load
// a prebuilt entity index here and serve lookups over it.
func runEntityIndex(cmd *cobra.Command, args []string) error {
	w := bufio.NewWriter(os.Stderr)
	defer w.Flush()
	fmt.Fprintln(w, "entity-index: entity/widget subsystems are out of scope for this deployment; no entity index loaded")
	return nil
}
