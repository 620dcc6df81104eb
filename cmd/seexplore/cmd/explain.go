package cmd

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/engine"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain <scenario>",
	Short: "Analyze one scenario and print each issue's flow-step breadcrumb trail",
	Long: `Explain runs a single scenario, same as run, but renders each issue as
human-readable text with its flow steps indented underneath — the
breadcrumb of program points that led to the finding, when the checker
that reported it recorded one.`,
	Args: cobra.ExactArgs(1),
	RunE: explainScenario,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func explainScenario(_ *cobra.Command, args []string) error {
	bounds, err := loadBounds()
	if err != nil {
		return err
	}

	selected := selectScenarios(args[:1])
	if len(selected) == 0 {
		return fmt.Errorf("no built-in scenario named %q", args[0])
	}
	s := selected[0]

	analysis := engine.New()
	analysis.AnalyzeMethod(s.CFG, s.Method, s.Oracle, bounds)

	issues := analysis.Sink.Issues()
	if len(issues) == 0 {
		fmt.Printf("%s: no issues found\n", s.Name)
		return nil
	}

	for _, iss := range issues {
		fmt.Println(iss.String())
		if len(iss.Flow) == 0 {
			continue
		}
		for _, step := range iss.Flow {
			fmt.Printf("    at %d:%d: %s\n", step.Pos.Line, step.Pos.Column, step.Message)
		}
	}
	return nil
}
