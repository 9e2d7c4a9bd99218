package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/impact-report/internal/model"
)

var (
	batchCompanies []string
	batchLimit     int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate reports for every company sheet, one after another",
	Long:  "Runs the report pipeline for each company in the mechanisms workbook (or the --company list) sequentially. Per-company failures are reported and do not stop the batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initReportEnv(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		companies := batchCompanies
		if len(companies) == 0 {
			companies, err = env.Extractor.CompanySheets(ctx)
			if err != nil {
				return eris.Wrap(err, "list company sheets")
			}
		}
		if batchLimit > 0 && len(companies) > batchLimit {
			companies = companies[:batchLimit]
		}
		zap.L().Info("batch: starting", zap.Int("companies", len(companies)))

		results := env.Pipeline.Batch(ctx, companies)
		summarizeBatch(os.Stdout, results)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringSliceVar(&batchCompanies, "company", nil, "companies to process (default: every company sheet)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of companies to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// batchSummary counts batch outcomes.
type batchSummary struct {
	Succeeded int
	Failed    int
	Tokens    int64
	Cost      float64
}

func computeBatchSummary(results []*model.RunResult) batchSummary {
	var s batchSummary
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.Tokens += r.Metrics.TokenUsage.TotalTokens
		s.Cost += r.Metrics.TokenUsage.Cost
	}
	return s
}

// summarizeBatch writes each company's outcome followed by totals.
func summarizeBatch(w io.Writer, results []*model.RunResult) {
	for _, r := range results {
		printResult(w, r)
	}
	s := computeBatchSummary(results)
	_, _ = fmt.Fprintf(w, "\nBatch complete: %d succeeded, %d failed, %d tokens ($%.4f)\n",
		s.Succeeded, s.Failed, s.Tokens, s.Cost)
}
