package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/bankflow/internal/export"
	"github.com/cleared-dev/bankflow/internal/pipeline"
	"github.com/cleared-dev/bankflow/internal/reconcile"
	"github.com/cleared-dev/bankflow/internal/target"
)

var errVerifyFailed = errors.New("verification failed")

// maxListed bounds the mismatches and duplicates printed per report.
const maxListed = 20

func newVerifyCommand(v *viper.Viper) *cobra.Command {
	var quiet bool
	var targetCSV string
	var only string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reconcile the latest bank exports against the target table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer e.Close()

			opts := pipeline.VerifyOptions{Only: only}
			if targetCSV != "" {
				if opts.Targets, err = readTargetCSV(targetCSV); err != nil {
					return err
				}
			}

			res, err := e.session().Verify(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printVerify(cmd.OutOrStdout(), res, quiet)
			if !res.IsValid {
				return errVerifyFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the summary")
	cmd.Flags().StringVar(&targetCSV, "target-csv", "", "read target rows from a CSV export instead of the table")
	cmd.Flags().StringVarP(&only, "only", "o", "", "only verify files whose name contains this text")

	return cmd
}

func readTargetCSV(path string) ([]target.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening target CSV: %w", err)
	}
	defer f.Close()

	rows, err := export.ReadTargets(f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []target.Record{}
	}
	return rows, nil
}

func printVerify(out io.Writer, res *reconcile.Result, quiet bool) {
	status := "PASS"
	if !res.IsValid {
		status = "FAIL"
	}
	fmt.Fprintf(out, "Verify %s: source %d, target %d, matched %d, mismatched %d, source only %d, target only %d\n",
		status, res.TotalSource, res.TotalTarget, res.Matched, res.Mismatched, res.SourceOnly, res.TargetOnly)
	fmt.Fprintf(out, "  debit  source %s target %s\n", res.SourceDebit.StringFixed(2), res.TargetDebit.StringFixed(2))
	fmt.Fprintf(out, "  credit source %s target %s\n", res.SourceCredit.StringFixed(2), res.TargetCredit.StringFixed(2))
	fmt.Fprintf(out, "  dates  %s\n", res.DateRange)
	for _, r := range res.Reasons {
		fmt.Fprintf(out, "  ! %s\n", r)
	}
	if quiet {
		return
	}

	for i, m := range res.Differences {
		if i == maxListed {
			fmt.Fprintf(out, "  ... %d more mismatches\n", len(res.Differences)-maxListed)
			break
		}
		fmt.Fprintf(out, "  mismatch %s %s (target %s)\n", m.SourceFile, m.Source.DateKey(), m.TargetID)
		for _, d := range m.Differences {
			if d.Severity == reconcile.SeverityNormal {
				continue
			}
			fmt.Fprintf(out, "    [%s] %s: %q != %q\n", d.Severity, d.Field, d.Source, d.Target)
		}
	}
	if len(res.TypeUpdates) > 0 {
		fmt.Fprintf(out, "  %d records have a different type in the target (run reclassify)\n", len(res.TypeUpdates))
	}
	if res.DuplicateCount > 0 {
		fmt.Fprintf(out, "  %d duplicate target records in %d groups (run dedupe)\n", res.DuplicateCount, len(res.DuplicateGroups))
	}
	names := make([]string, 0, len(res.FileStats))
	for name := range res.FileStats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := res.FileStats[name]
		fmt.Fprintf(out, "  %s: records %d, matched %d, mismatched %d\n", name, st.Records, st.Matched, st.Mismatched)
	}
}
