package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/store"
	"github.com/KaramelBytes/claimlens/internal/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	histDBPath string
	histLimit  int
	histSource string
	histJSON   bool
	histDelete string
	histShow   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List analysis runs stored with analyze --db",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := histDBPath
		if path == "" {
			path = currentConfig().DBPath
		}
		if path == "" {
			return fmt.Errorf("no history database configured (set db_path or pass --db)")
		}
		path, err := utils.ExpandHome(path)
		if err != nil {
			return err
		}
		s, err := store.Open(path, log)
		if err != nil {
			return err
		}
		defer s.Close()

		w := cmd.OutOrStdout()
		if histDelete != "" {
			id, err := uuid.Parse(histDelete)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", histDelete, err)
			}
			if err := s.DeleteRun(id); err != nil {
				return err
			}
			fmt.Fprintf(w, "✓ Deleted run %s\n", id)
			return nil
		}

		if histShow != "" {
			id, err := uuid.Parse(histShow)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", histShow, err)
			}
			run, err := s.GetRun(id)
			if err != nil {
				return err
			}
			if histJSON {
				return writeJSON(cmd, run)
			}
			printRun(w, run)
			return nil
		}

		runs, err := s.ListRuns(histLimit, histSource)
		if err != nil {
			return err
		}
		if histJSON {
			return writeJSON(cmd, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "(no runs)")
			return nil
		}
		for _, r := range runs {
			var parts []string
			for _, o := range r.Outliers {
				parts = append(parts, fmt.Sprintf("%s=%d", strings.TrimPrefix(o.Field, "video_"), o.Count))
			}
			fmt.Fprintf(w, "- %s: %s (%s) rows=%d dropped=%d\n",
				r.ID, r.Source, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Rows, r.Dropped)
			if len(parts) > 0 {
				fmt.Fprintf(w, "    outliers: %s\n", strings.Join(parts, " "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&histDBPath, "db", "", "history database (default config db_path)")
	historyCmd.Flags().IntVar(&histLimit, "limit", 20, "maximum runs to list (0 = all)")
	historyCmd.Flags().StringVar(&histSource, "source", "", "only runs of this input name")
	historyCmd.Flags().BoolVar(&histJSON, "json", false, "print JSON instead of a list")
	historyCmd.Flags().StringVar(&histDelete, "delete", "", "delete the run with this id")
	historyCmd.Flags().StringVar(&histShow, "show", "", "print the stored statistics of the run with this id")
}

// printRun writes one run with its stored field, outlier and correlation rows.
func printRun(w io.Writer, r *store.Run) {
	fmt.Fprintf(w, "- %s: %s (%s) rows=%d read=%d dropped=%d\n",
		r.ID, r.Source, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Rows, r.Read, r.Dropped)
	if len(r.Fields) > 0 {
		fmt.Fprintln(w, "  fields:")
		for _, f := range r.Fields {
			std := "NaN"
			if f.Std != nil {
				std = fmt.Sprintf("%.4g", *f.Std)
			}
			fmt.Fprintf(w, "    %s: count %d, mean %.4g, std %s, median %.4g, min %.4g, max %.4g\n",
				f.Field, f.Count, f.Mean, std, f.Median, f.Min, f.Max)
		}
	}
	if len(r.Outliers) > 0 {
		fmt.Fprintln(w, "  outliers:")
		for _, o := range r.Outliers {
			fmt.Fprintf(w, "    %s: %d/%d above %.4g (multiplier %g)\n", o.Field, o.Count, o.Total, o.Threshold, o.Multiplier)
		}
	}
	if len(r.Correlations) > 0 {
		fmt.Fprintln(w, "  correlations:")
		for _, c := range r.Correlations {
			rs := "NaN"
			if c.R != nil {
				rs = fmt.Sprintf("%.6f", *c.R)
			}
			fmt.Fprintf(w, "    %s: r=%s (n=%d)\n", c.Field, rs, c.N)
		}
	}
}
