package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/impact-report/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the companies found in the source workbooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("list"); err != nil {
			return err
		}
		ex := newExtractor(cfg)

		var (
			surveys []model.SurveyRecord
			sheets  []string
		)
		g, gctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			surveys, err = ex.SurveyRecords(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			sheets, err = ex.CompanySheets(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "list companies")
		}

		formatCompanyList(os.Stdout, companyRows(surveys, sheets))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// companyRow is one listed company and where it was found.
type companyRow struct {
	Name      string
	Survey    bool
	Mechanism bool
}

// companyRows merges survey company names and mechanism sheet names by
// folded name, sorted by name.
func companyRows(surveys []model.SurveyRecord, sheets []string) []companyRow {
	byKey := map[string]*companyRow{}
	var order []string
	get := func(name string) *companyRow {
		key := model.Fold(name)
		if r, ok := byKey[key]; ok {
			return r
		}
		byKey[key] = &companyRow{Name: name}
		order = append(order, key)
		return byKey[key]
	}
	for _, s := range surveys {
		if s.CompanyName == "" || s.CompanyName == model.UnknownCompany {
			continue
		}
		get(s.CompanyName).Survey = true
	}
	for _, name := range sheets {
		get(name).Mechanism = true
	}

	rows := make([]companyRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *byKey[k])
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

func formatCompanyList(out io.Writer, rows []companyRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tSURVEY\tMECHANISMS")
	_, _ = fmt.Fprintln(w, "-------\t------\t----------")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, yesNo(r.Survey), yesNo(r.Mechanism))
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d companies\n", len(rows))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
