package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankflow/internal/config"
)

const defaultSettings = `source:
  dir: import
  drive_folder: ""
google:
  credentials: ""
store:
  path: data/bankflow.db
config:
  dir: config
runlog:
  dir: logs
logging:
  level: info
  format: text
api:
  addr: ":8080"
`

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a bankflow workspace with default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration")

	return cmd
}

func runInit(out io.Writer, dir string, force bool) error {
	settingsPath := filepath.Join(dir, "bankflow.yaml")
	if !force {
		if _, err := os.Stat(settingsPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", settingsPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", settingsPath, err)
		}
	}

	for _, d := range []string{"import", "data", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, "config"), config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(settingsPath, []byte(defaultSettings), 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	gitignore := "data/\nlogs/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Fprintf(out, "Initialized bankflow workspace at %s\n", dir)
	return nil
}
