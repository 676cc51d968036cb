package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newReclassifyCommand(v *viper.Viper) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run the classification rules over every target record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := e.session().Reclassify(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked %d records, %d need a new type\n", rep.Checked, len(rep.Changes))
			for _, t := range rep.Distribution {
				fmt.Fprintf(out, "  %s -> %s: %d\n", t.From, t.To, t.Count)
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run; nothing updated")
				return nil
			}
			fmt.Fprintf(out, "Updated %d records", rep.Updated)
			if rep.Failed > 0 {
				fmt.Fprintf(out, ", %d failed", rep.Failed)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without updating")

	return cmd
}

func newDedupeCommand(v *viper.Viper) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Delete duplicate target records, keeping the first of each group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer e.Close()

			rep, err := e.session().RemoveDuplicates(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d duplicate groups, %d removable records\n", len(rep.Groups), len(rep.IDs))
			for i, g := range rep.Groups {
				if i == maxListed {
					fmt.Fprintf(out, "  ... %d more groups\n", len(rep.Groups)-maxListed)
					break
				}
				fmt.Fprintf(out, "  %s: %d records\n", g.Key, len(g.RecordIDs))
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run; nothing deleted")
				return nil
			}
			fmt.Fprintf(out, "Deleted %d records\n", rep.Deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report duplicates without deleting")

	return cmd
}

func newPurgeSourceCommand(v *viper.Viper) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "purge-source NAME",
		Short: "Delete every target record written from one source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer e.Close()

			matched, deleted, err := e.session().DeleteBySource(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d records from %s would be deleted\n", matched, args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d records from %s\n", deleted, matched, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count matching records without deleting")

	return cmd
}
