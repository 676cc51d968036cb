// Package commands implements the bankflow CLI.
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/bankflow/internal/buildinfo"
	"github.com/cleared-dev/bankflow/internal/logging"
)

// Settings keys.
const (
	keySourceDir   = "source.dir"
	keyDriveFolder = "source.drive_folder"
	keyCredentials = "google.credentials"
	keyStorePath   = "store.path"
	keyConfigDir   = "config.dir"
	keyLogLevel    = "logging.level"
	keyLogFormat   = "logging.format"
	keyAPIAddr     = "api.addr"
	keyRunLogDir   = "runlog.dir"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "bankflow",
		Short:   "Bank statement ingestion and reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "settings", "", "settings file (default: ./bankflow.yaml)")
	pf.String("config-dir", "config", "directory holding field_mapping.yaml, company_profile.yaml and type_classification.yaml")
	pf.String("source-dir", "import", "local directory of bank exports")
	pf.String("drive-folder", "", "Google Drive folder ID to read exports from instead of --source-dir")
	pf.String("credentials", "", "Google service account credentials file")
	pf.String("store", "data/bankflow.db", "SQLite target table path")
	pf.String("runlog-dir", "logs", "directory of the run audit log (empty disables)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	for key, flag := range map[string]string{
		keyConfigDir:   "config-dir",
		keySourceDir:   "source-dir",
		keyDriveFolder: "drive-folder",
		keyCredentials: "credentials",
		keyStorePath:   "store",
		keyRunLogDir:   "runlog-dir",
		keyLogLevel:    "log-level",
		keyLogFormat:   "log-format",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newSyncCommand(v),
		newVerifyCommand(v),
		newParseCommand(v),
		newReclassifyCommand(v),
		newDedupeCommand(v),
		newPurgeSourceCommand(v),
		newServeCommand(v),
	)

	return rootCmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("bankflow")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BANKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading settings: %w", err)
		}
	}

	level, err := logging.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return err
	}
	logging.Setup(level, v.GetString(keyLogFormat))
	return nil
}
