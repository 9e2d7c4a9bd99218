package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/impact-report/internal/model"
)

var (
	generateCompany string
	generateOutput  string
	generateJSON    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the impact-assessment report for one company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initReportEnv(ctx, "generate")
		if err != nil {
			return err
		}
		defer env.Close()

		res, runErr := env.Pipeline.Run(ctx, generateCompany, generateOutput)
		if res != nil {
			if generateJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return eris.Wrap(err, "encode result")
				}
			} else {
				printResult(os.Stdout, res)
			}
		}
		if runErr != nil {
			return eris.Wrapf(runErr, "generate report for %q", generateCompany)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateCompany, "company", "", "company name (exact or partial)")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "output .docx path (default: output_dir/filename_pattern)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "print the full run result as JSON")
	_ = generateCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(generateCmd)
}

// printResult writes a human summary of one run.
func printResult(w io.Writer, res *model.RunResult) {
	status := "OK"
	if !res.Success {
		status = "FAILED"
	}
	_, _ = fmt.Fprintf(w, "%s  %s\n", status, res.CompanyName)
	if res.OutputPath != "" {
		_, _ = fmt.Fprintf(w, "  report:        %s\n", res.OutputPath)
	}
	if res.TraceabilityPath != "" {
		_, _ = fmt.Fprintf(w, "  traceability:  %s\n", res.TraceabilityPath)
	}
	if res.ValidationPath != "" {
		_, _ = fmt.Fprintf(w, "  validation:    %s\n", res.ValidationPath)
	}
	m := res.Metrics
	_, _ = fmt.Fprintf(w, "  rules:         %d applied, %d skipped\n", m.RulesProcessed, m.RulesSkipped)
	_, _ = fmt.Fprintf(w, "  citations:     %d\n", m.TraceabilityEntries)
	_, _ = fmt.Fprintf(w, "  tokens:        %d ($%.4f)\n", m.TokenUsage.TotalTokens, m.TokenUsage.Cost)
	_, _ = fmt.Fprintf(w, "  duration:      %dms\n", m.TotalMs)
	if v := res.Validation; v != nil {
		_, _ = fmt.Fprintf(w, "  traceable:     %.1f%% (%d/%d)\n", v.Traceability.Rate*100, v.Traceability.Traceable, v.Traceability.Total)
		_, _ = fmt.Fprintf(w, "  hallucinations: %d\n", v.Hallucination.Count)
	}
	for _, warn := range res.Warnings {
		_, _ = fmt.Fprintf(w, "  warning: %s\n", warn)
	}
	if len(res.Errors) > 0 {
		_, _ = fmt.Fprintf(w, "  error: %s\n", strings.Join(res.Errors, "; "))
	}
}
