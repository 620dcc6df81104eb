package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-dws/internal/engine"
	"github.com/cwbudde/go-dws/internal/engine/config"
	"github.com/cwbudde/go-dws/internal/engine/scenarios"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Analyze one or more built-in scenarios and print their issues as JSON",
	Long: `Run explores each named scenario's CFG to a fixed point and prints every
issue its checkers reported, as a JSON array.

With no arguments, every built-in scenario runs. Scenario names match
internal/engine/scenarios' Scenario.Name fields, e.g.:

  seexplore run nullDereference lockNotUnlocked`,
	RunE: runScenarios,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func loadBounds() (config.Bounds, error) {
	if configPath == "" {
		return config.Defaults(), nil
	}
	doc, err := os.ReadFile(configPath)
	if err != nil {
		return config.Bounds{}, fmt.Errorf("reading config file %s: %w", configPath, err)
	}
	cfg, err := config.LoadYAML(doc)
	if err != nil {
		return config.Bounds{}, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}
	return cfg.Bounds, nil
}

func selectScenarios(names []string) []scenarios.Scenario {
	all := scenarios.All()
	if len(names) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []scenarios.Scenario
	for _, s := range all {
		if wanted[s.Name] {
			out = append(out, s)
		}
	}
	return out
}

func runScenarios(_ *cobra.Command, args []string) error {
	bounds, err := loadBounds()
	if err != nil {
		return err
	}

	selected := selectScenarios(args)
	analysis := engine.New()
	for _, s := range selected {
		if verbose {
			fmt.Fprintf(os.Stderr, "analyzing %s...\n", s.Name)
		}
		analysis.AnalyzeMethod(s.CFG, s.Method, s.Oracle, bounds)
	}

	doc, err := analysis.Sink.JSON()
	if err != nil {
		return fmt.Errorf("rendering issues as JSON: %w", err)
	}
	fmt.Println(doc)
	return nil
}
