package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/bankflow/internal/pipeline"
)

func newSyncCommand(v *viper.Viper) *cobra.Command {
	var opts pipeline.SyncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write new records from the latest bank exports to the target table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := e.session().Sync(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), rep)
			if rep.Validation != nil {
				printVerify(cmd.OutOrStdout(), rep.Validation, false)
				if !rep.Validation.IsValid {
					return errVerifyFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Full, "full", "f", false, "write every record without checking existing keys")
	cmd.Flags().StringVarP(&opts.Only, "only", "o", "", "only sync files whose name contains this text")
	cmd.Flags().BoolVarP(&opts.Validate, "validate", "v", false, "verify the target after syncing")

	return cmd
}

func printSync(out io.Writer, rep *pipeline.SyncReport) {
	if len(rep.Files) == 0 {
		fmt.Fprintln(out, "No source files to sync")
		return
	}
	for _, f := range rep.Files {
		if f.Error != "" {
			fmt.Fprintf(out, "  %s: skipped (%s)\n", f.Name, f.Error)
			continue
		}
		fmt.Fprintf(out, "  %s [%s]: parsed %d, written %d", f.Name, f.Format, f.Parsed, f.Written)
		if f.Failed > 0 {
			fmt.Fprintf(out, ", failed %d", f.Failed)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Parsed %d records, wrote %d new (%d already in target)\n", rep.Parsed, rep.Written, rep.Existing)
}
