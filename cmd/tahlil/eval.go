package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagliklab/tahlil/internal/cli"
	"github.com/sagliklab/tahlil/internal/config"
	"github.com/sagliklab/tahlil/internal/eval"
)

var (
	evalCasesDir   string
	evalRunsDir    string
	evalCaseFilter string
	evalModel      string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the pipeline over test cases and score against ground truth",
	Long: `Eval iterates the test-cases directory, runs full extraction on each
case's input.pdf, and scores the output against expected.json when one
exists. Results and settings are written under the runs directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if evalModel != "" {
			cfg.Model.Name = evalModel
		}

		runner := &eval.Runner{
			TestCasesDir: evalCasesDir,
			RunsDir:      evalRunsDir,
			CaseFilter:   evalCaseFilter,
			Request:      requestFromConfig(cfg, nil),
		}

		data, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d case(s)\n", data.RunID, len(data.Results))
		return cli.Output(data.Results)
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalCasesDir, "cases", "evals/test-cases", "directory of test cases")
	evalCmd.Flags().StringVar(&evalRunsDir, "runs", "evals/runs", "directory for run output")
	evalCmd.Flags().StringVar(&evalCaseFilter, "case", "", "only run cases whose name contains this string")
	evalCmd.Flags().StringVarP(&evalModel, "model", "m", "", "model identifier (overrides config)")
}
