package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/coach-periodization-api/internal/models"
	"github.com/noah-isme/coach-periodization-api/pkg/calendar"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "periodctl",
		Short:        "Offline tools for training plan periodization",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newDeriveCmd())
	rootCmd.AddCommand(newWeekdayCmd())
	rootCmd.AddCommand(newDayIndexCmd())
	return rootCmd
}

func newDeriveCmd() *cobra.Command {
	var (
		file   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive working weights for a plan described in YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open plan file: %w", err)
				}
				defer f.Close() //nolint:errcheck
				in = f
			}
			pf, err := decodePlanFile(in)
			if err != nil {
				return err
			}
			session, err := buildSession(pf)
			if err != nil {
				return err
			}
			return writeLoads(cmd.OutOrStdout(), output, session.Loads())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "plan file, - or empty for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newWeekdayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weekday <day>",
		Short: "Map a plan day index to week and day of week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("day must be an integer: %w", err)
			}
			wd, err := calendar.ToWeekDay(day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "week %d day %d\n", wd.Week, wd.Day)
			return nil
		},
	}
}

func newDayIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dayindex <week> <day-of-week>",
		Short: "Map a week and day of week to a plan day index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("week must be an integer: %w", err)
			}
			dow, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("day of week must be an integer: %w", err)
			}
			day, err := calendar.ToDayIndex(week, dow)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day)
			return nil
		},
	}
}

func writeLoads(w io.Writer, format string, loads []models.DerivedLoad) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(loads)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(loads)
	case outputTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PERIOD\tEXERCISE\tPCT\tADJUSTMENT\tBASIS\tREFERENCE\tWORKING")
		for _, l := range loads {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				l.PeriodName, l.ExerciseID, strconv.FormatFloat(l.Percentage, 'f', -1, 64),
				adjustmentLabel(l.Adjustment), l.Basis, weightLabel(l.ReferenceWeight), weightLabel(l.WorkingWeight))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func adjustmentLabel(adj models.Adjustment) string {
	switch adj.Kind {
	case models.AdjustmentIncrease:
		return "+" + strconv.FormatFloat(adj.Value, 'f', -1, 64) + " " + string(adj.Unit)
	case models.AdjustmentDecrease:
		return "-" + strconv.FormatFloat(adj.Value, 'f', -1, 64) + " " + string(adj.Unit)
	default:
		return "maintain"
	}
}

func weightLabel(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
