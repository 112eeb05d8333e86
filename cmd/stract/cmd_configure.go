package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stract/stract/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "load and validate a config file, printing the effective configuration",
	RunE:  runConfigure,
}

// runConfigure is a dry run over config.Load: it never starts a role, it
// just resolves defaults + file + env and prints the result, so an
// operator can check what a role would actually see before launching it.
func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal effective config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
