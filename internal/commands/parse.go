package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/bankflow/internal/export"
	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/pipeline"
)

func newParseCommand(v *viper.Viper) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse bank exports and print canonical records as CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			s := pipeline.NewSession(pipeline.Deps{Config: cfg})
			return runParse(s, args, outPath, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "write records to this CSV file instead of stdout")

	return cmd
}

func runParse(s *pipeline.Session, paths []string, outPath string, stdout, stderr io.Writer) error {
	var records []model.Record
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		res := s.ParseBytes(filepath.Base(p), data)
		fmt.Fprintf(stderr, "%s [%s]: %d records\n", p, res.Format, len(res.Records))
		if len(res.Records) == 0 && res.Reason != "" {
			fmt.Fprintf(stderr, "  %s\n", res.Reason)
		}
		records = append(records, res.Records...)
	}

	if outPath == "" {
		return export.WriteRecords(stdout, records)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := export.WriteRecords(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
