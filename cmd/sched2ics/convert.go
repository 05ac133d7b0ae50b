package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sched2ics/internal/config"
	"sched2ics/internal/convert"
	"sched2ics/internal/ics"
	appLog "sched2ics/internal/log"
)

type convertFlags struct {
	output string
	tz     string
	sheet  string
	verify bool
}

func newConvertCmd(root *rootFlags) *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert <export.xlsx|export.json>",
		Short: "Convert an export into <name>_calendar.ics",
		Long: `Reads the "Enrolled Sections" table of an xlsx workbook or a JSON cell
snapshot and writes one weekly recurring event per enrolled section.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, flags.tz, flags.sheet); err != nil {
				return err
			}
			return runConvert(cfg, args[0], flags)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output path (default <input>_calendar.ics next to the input)")
	cmd.Flags().StringVar(&flags.tz, "tz", "", "TZID override, e.g. America/Chicago")
	cmd.Flags().StringVar(&flags.sheet, "sheet", "", "Worksheet name (default first sheet)")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "Parse the output back and check every event")
	return cmd
}

// applyOverrides layers command-line settings over the config.
func applyOverrides(cfg *config.Config, tz, sheet string) error {
	if tz != "" {
		if _, ok := ics.LookupZone(tz); !ok {
			return fmt.Errorf("unsupported --tz %q (known: %v)", tz, ics.ZoneIDs())
		}
		cfg.Timezone = tz
	}
	if sheet != "" {
		cfg.Sheet = sheet
	}
	return nil
}

func runConvert(cfg *config.Config, input string, flags *convertFlags) error {
	res, err := newConverter(cfg).ConvertFile(input)
	if err != nil && !convert.IsStructural(err) {
		return err
	}
	if err != nil {
		// The empty document is still written so callers always get a file.
		appLog.Warn("input could not be read as a cell mapping", "input", input, "err", err)
	}

	if flags.verify {
		if _, verr := ics.Verify(res.Document); verr != nil {
			return fmt.Errorf("verify output: %w", verr)
		}
	}

	out := flags.output
	if out == "" {
		out = filepath.Join(filepath.Dir(input), convert.OutputName(input))
	}
	if werr := os.WriteFile(out, []byte(res.Document), 0o644); werr != nil {
		return werr
	}
	appLog.Info("calendar written", "output", out, "events", len(res.Events), "tzid", cfg.Timezone)
	return err
}
