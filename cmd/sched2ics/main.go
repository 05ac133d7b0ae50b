package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"sched2ics/internal/config"
	"sched2ics/internal/convert"
	appLog "sched2ics/internal/log"
)

const version = "0.3.0"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("sched2ics failed", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "sched2ics",
		Short:         "Convert an enrollment spreadsheet export into an iCalendar file",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if flags.logLevel == "" {
				return nil
			}
			lvl, err := appLog.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			appLog.SetLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newConvertCmd(flags),
		newPreviewCmd(flags),
		newServeCmd(flags),
	)
	return root
}

// loadConfig reads the config file when --config is given, otherwise it
// returns defaults without touching disk. The file's log level applies
// unless --log-level was set.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		var err error
		cfg, err = config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
	}
	if flags.logLevel == "" {
		lvl, err := appLog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		appLog.SetLevel(lvl)
	}
	return cfg, nil
}

func newConverter(cfg *config.Config) *convert.Converter {
	return convert.New(convert.Options{
		TZID:      cfg.Timezone,
		ProductID: cfg.ProductID,
		UIDDomain: cfg.UIDDomain,
		Sheet:     cfg.Sheet,
		Now:       time.Now,
	})
}
