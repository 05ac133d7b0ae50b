package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sched2ics/internal/convert"
	"sched2ics/internal/ics"
)

func newPreviewCmd(root *rootFlags) *cobra.Command {
	var (
		weeks int
		tz    string
		sheet string
	)

	cmd := &cobra.Command{
		Use:   "preview <export.xlsx|export.json>",
		Short: "Print the first weeks of meetings the calendar would contain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, tz, sheet); err != nil {
				return err
			}
			if weeks <= 0 {
				weeks = cfg.PreviewWeeks
			}

			res, err := newConverter(cfg).ConvertFile(args[0])
			if err != nil {
				return err
			}
			exp, err := convert.Preview(res, weeks)
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return err
			}
			return printOccurrences(cmd.OutOrStdout(), exp, loc)
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 0, "Number of weeks to show (default from config)")
	cmd.Flags().StringVar(&tz, "tz", "", "TZID override, e.g. America/Chicago")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name (default first sheet)")
	return cmd
}

func printOccurrences(w io.Writer, exp ics.ExpandResult, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tSTART\tEND\tCOURSE\tLOCATION")
	for _, occ := range exp.Occurrences {
		start := occ.Start.In(loc)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			start.Format("Mon 2006-01-02"),
			start.Format("15:04"),
			occ.End.In(loc).Format("15:04"),
			occ.Summary,
			occ.Location,
		)
	}
	for _, uid := range exp.TruncatedEvents {
		fmt.Fprintf(tw, "(truncated)\t\t\t%s\t\n", uid)
	}
	return tw.Flush()
}
